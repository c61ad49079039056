package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newBooksCmd() *cobra.Command {
	var genreID string

	cmd := &cobra.Command{
		Use:   "books [query]",
		Short: "List the purchasable catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			page, err := client.ListBooks(cmd.Context(), query, genreID)
			if err != nil {
				return err
			}

			if len(page.Items) == 0 {
				fmt.Println("No books found")
				return nil
			}

			for _, b := range page.Items {
				var formats []string
				if b.HasEbook {
					formats = append(formats, "ebook")
				}
				if b.HasAudio {
					formats = append(formats, "audio")
				}
				if b.HasPhysical {
					formats = append(formats, "print")
				}
				fmt.Printf("%s  %s by %s  [%s]  from %.2f ₸\n",
					b.ID, b.Title, b.Author, strings.Join(formats, ","), float64(b.MinPrice)/100)
			}
			fmt.Printf("%d of %d books (page %d)\n", len(page.Items), page.Total, page.Page)
			return nil
		},
	}

	cmd.Flags().StringVar(&genreID, "genre", "", "Filter by genre id")
	return cmd
}

func newBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book <id>",
		Short: "Show book details and your entitlement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID := args[0]

			details, err := client.GetBook(cmd.Context(), bookID)
			if err != nil {
				return err
			}

			fmt.Printf("%s\n%s\n", details.Title, details.Author)
			if details.Description != "" {
				fmt.Printf("\n%s\n", details.Description)
			}
			if details.PwywPolicy != nil {
				fmt.Printf("\nPay what you want, from %.2f ₸\n", float64(details.PwywPolicy.MinPriceTiyn)/100)
			} else if details.MinPriceTiyn > 0 {
				fmt.Printf("\nPrice from %.2f ₸\n", float64(details.MinPriceTiyn)/100)
			}

			access, err := client.GetAccess(cmd.Context(), bookID)
			if err != nil {
				// Entitlement is informational here; details were already shown.
				fmt.Println("\nEntitlement unknown (not signed in?)")
				return nil
			}

			switch {
			case access.HasLicense && access.AllowEbook:
				fmt.Println("\nYou own this book. Read it with: kazbooks read", bookID)
			case access.HasLicense:
				fmt.Println("\nYou own this book, but no ebook edition is available.")
			default:
				fmt.Println("\nNot in your library. Buy it with: kazbooks buy", bookID)
			}
			return nil
		},
	}
}
