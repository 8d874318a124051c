package main

import (
	"birthday-notes-be/internal/client"
	"birthday-notes-be/internal/dto"
	"birthday-notes-be/internal/editwindow"
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// runEditSession offers a single revision of note's message. The prompt is
// abandoned once the edit window runs out.
func runEditSession(
	ctx context.Context,
	api *client.NotesClient,
	note *dto.NoteResponse,
	in io.Reader,
	out io.Writer,
	opts ...editwindow.Option,
) error {
	closed := make(chan struct{})
	var once sync.Once

	opts = append(opts, editwindow.WithOnChange(func(s editwindow.State) {
		if s.Idle() {
			once.Do(func() { close(closed) })
		}
	}))
	window := editwindow.NewController(opts...)
	defer window.Stop()

	window.Start(note)
	fmt.Fprintf(out, "You have %d seconds to revise your message. Enter new text (blank keeps it):\n", window.State().SecondsRemaining)

	// the reader is left behind if the window closes first; it ends with stdin
	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-closed:
		fmt.Fprintln(out, "Edit window closed.")
		return nil

	case line, ok := <-lines:
		if !ok || strings.TrimSpace(line) == "" {
			fmt.Fprintln(out, "No changes made.")
			return nil
		}
		if !window.CanEdit(note.Id) {
			fmt.Fprintln(out, "Edit window closed.")
			return nil
		}

		updated, err := api.Update(ctx, note.Id, &line, nil)
		if err != nil {
			return fmt.Errorf("updating note: %w", err)
		}
		window.Consume(note.Id)

		fmt.Fprintf(out, "Updated %s: %q by %s\n", updated.Id, updated.Message, updated.Signature)
		return nil
	}
}
