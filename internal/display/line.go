package display

import (
	"context"
	"fmt"
	"io"
)

// WriteLines writes the board's status line to w whenever it changes,
// starting with the current one, until ctx is done or the board closes.
func WriteLines(ctx context.Context, w io.Writer, b *Board, sep string) error {
	changes, err := b.Subscribe()
	if err != nil {
		return err
	}
	defer b.Unsubscribe(changes)

	last := b.Line(sep)
	if _, err := fmt.Fprintln(w, last); err != nil {
		return fmt.Errorf("writing status line: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			line := b.Line(sep)
			if line == last {
				continue
			}
			last = line
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("writing status line: %w", err)
			}
		}
	}
}
