package main

import (
	"birthday-notes-be/internal/client"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3100"

type rootOptions struct {
	apiURL  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.NotesClient {
	return client.New(o.apiURL, client.WithTimeout(o.timeout))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wishes",
		Short: "Post and read birthday wishes",
		Long: `wishes talks to the birthday notes API.
A freshly posted note can be revised once within a short edit window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	apiURL := os.Getenv("WISHES_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", apiURL, "Base URL of the notes API (env WISHES_API_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	cmd.AddCommand(
		newListCmd(opts),
		newDownloadCmd(opts),
		newGetCmd(opts),
		newPostCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
	)
	return cmd
}
