package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every note, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := opts.client().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing notes: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), notes)
			}

			if len(notes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No wishes yet.")
				return nil
			}
			for _, note := range notes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %q by %s\n", note.Id, note.Message, note.Signature)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Export every note as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := opts.client().Download(cmd.Context())
			if err != nil {
				return fmt.Errorf("downloading notes: %w", err)
			}

			if output == "" || output == "-" {
				return writeJSON(cmd.OutOrStdout(), notes)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := writeJSON(f, notes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d notes to %s\n", len(notes), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}

			note, err := opts.client().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("fetching note: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), note)
		},
	}
}

func newPostCmd(opts *rootOptions) *cobra.Command {
	var message, signature string
	var edit bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new birthday wish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := opts.client()

			note, err := api.Create(cmd.Context(), message, signature)
			if err != nil {
				return fmt.Errorf("posting note: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s: %q by %s\n", note.Id, note.Message, note.Signature)

			if !edit {
				return nil
			}
			return runEditSession(cmd.Context(), api, note, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Wish text (2-300 characters)")
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "Your name (2-50 characters)")
	cmd.Flags().BoolVar(&edit, "edit", false, "Offer one revision of the message while the edit window is open")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var message, signature string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the message or signature of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}

			var msgPtr, sigPtr *string
			if cmd.Flags().Changed("message") {
				msgPtr = &message
			}
			if cmd.Flags().Changed("signature") {
				sigPtr = &signature
			}

			note, err := opts.client().Update(cmd.Context(), id, msgPtr, sigPtr)
			if err != nil {
				return fmt.Errorf("updating note: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), note)
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "New wish text")
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "New signature")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteId(args[0])
			if err != nil {
				return err
			}

			msg, err := opts.client().Delete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("deleting note: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func parseNoteId(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid note id %q", raw)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
