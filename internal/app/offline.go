package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>",
		Short: "Download a book's EPUB for offline reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID := args[0]

			downloaded, err := store.IsDownloaded(bookID)
			if err != nil {
				return err
			}
			if downloaded {
				fmt.Printf("Already downloaded: %s\n", store.LocalPath(bookID))
				return nil
			}

			path, err := store.Download(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded to %s\n", path)
			return nil
		},
	}
}

func newEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict <id>",
		Short: "Remove a book's offline copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.Evict(args[0]); err != nil {
				return err
			}
			fmt.Println("Removed offline copy")
			return nil
		},
	}
}
