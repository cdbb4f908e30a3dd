package monitor

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// Tail reads lines from r and hands each one to fn.
// Lines that are not slog records are delivered with only Raw set.
//
// With follow set, io.EOF is treated as a read timeout and Tail keeps reading
// until ctx is done. Otherwise EOF ends the stream and Tail returns nil.
func Tail(ctx context.Context, r io.Reader, follow bool, fn func(Record)) error {
	br := bufio.NewReader(r)
	var pending strings.Builder

	emit := func() {
		line := strings.TrimRight(pending.String(), "\r\n")
		pending.Reset()
		if line == "" {
			return
		}
		rec, err := ParseLine(line)
		if err != nil {
			rec = Record{Raw: line}
		}
		fn(rec)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := br.ReadString('\n')
		pending.WriteString(chunk)
		switch {
		case err == nil:
			emit()
		case errors.Is(err, io.EOF):
			if !follow {
				emit()
				return nil
			}
		default:
			return err
		}
	}
}
