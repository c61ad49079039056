package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLibraryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "library",
		Short: "List your owned books, with offline availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client.GetLibrary(cmd.Context())
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("Your library is empty")
				return nil
			}

			for _, item := range items {
				marker := ""
				if item.AllowEbook {
					downloaded, err := store.IsDownloaded(item.BookID)
					if err != nil {
						return err
					}
					if downloaded {
						marker = "  [offline]"
					} else {
						marker = "  [ebook]"
					}
				}
				fmt.Printf("%s  %s by %s%s\n", item.BookID, item.Title, item.Author, marker)
			}
			return nil
		},
	}
}

func newBuyCmd() *cobra.Command {
	var amountTenge float64

	cmd := &cobra.Command{
		Use:   "buy <id>",
		Short: "Place an online order for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID := args[0]

			details, err := client.GetBook(cmd.Context(), bookID)
			if err != nil {
				return err
			}

			minTiyn := details.MinPriceTiyn
			if details.PwywPolicy != nil {
				minTiyn = details.PwywPolicy.MinPriceTiyn
			}

			// The backend expects the amount in tiyn.
			amountTiyn := int64(amountTenge * 100)
			if amountTiyn <= 0 {
				amountTiyn = minTiyn
			}
			if amountTiyn < minTiyn {
				return fmt.Errorf("minimum price is %.2f ₸", float64(minTiyn)/100)
			}

			order, err := client.CreateOrder(cmd.Context(), bookID, amountTiyn)
			if err != nil {
				return err
			}

			fmt.Printf("Order %s placed for %q (%.2f ₸)\n", order.ID, details.Title, float64(amountTiyn)/100)
			return nil
		},
	}

	cmd.Flags().Float64Var(&amountTenge, "amount", 0, "Amount to pay in tenge (defaults to the minimum price)")
	return cmd
}
