package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mequqqe1/kazbooks-app/internal/api"
	"github.com/mequqqe1/kazbooks-app/internal/offline"
	"github.com/mequqqe1/kazbooks-app/internal/reader"
)

func newReadCmd() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Open a book in the embedded EPUB reader",
		Long: `read opens a book for reading. An offline copy is used when present;
otherwise the book is streamed online if your license allows it. With
--download the EPUB is fetched to local storage first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID := args[0]
			ctx := cmd.Context()

			title := bookID
			if details, err := client.GetBook(ctx, bookID); err == nil {
				title = details.Title
			}

			engine := newEngine()
			ctrl := newController(engine)
			defer ctrl.Close()

			go printEvents(ctrl.Events())

			var (
				rs  *reader.Session
				err error
			)
			if download {
				rs, err = ctrl.DownloadAndOpen(ctx, bookID, title)
			} else {
				var access *api.AccessDecision
				downloaded, derr := store.IsDownloaded(bookID)
				if derr != nil {
					return derr
				}
				if !downloaded {
					if access, err = client.GetAccess(ctx, bookID); err != nil {
						return err
					}
				}
				rs, err = ctrl.OpenForReading(ctx, bookID, title, access)
			}
			switch {
			case errors.Is(err, offline.ErrUnauthenticated):
				return fmt.Errorf("please sign in first: kazbooks login")
			case errors.Is(err, reader.ErrNoAccess):
				return fmt.Errorf("no ebook access for this book - buy it with: kazbooks buy %s", bookID)
			case err != nil:
				return err
			}
			defer ctrl.CloseSession(rs)

			fmt.Printf("Reading %q (%s source)\n", rs.Title, rs.Source.Kind)
			if web, ok := engine.(*reader.WebSandboxEngine); ok {
				fmt.Printf("Open %s in the web view; swipe to turn pages\n", web.ContentURL())
			}
			showChapter(engine)

			return readLoop(ctrl, engine, rs)
		},
	}

	cmd.Flags().BoolVar(&download, "download", false, "Download for offline before opening")
	return cmd
}

// readLoop is the in-terminal stand-in for the reader screen's toolbar.
func readLoop(ctrl *reader.Controller, engine reader.RenderingEngine, rs *reader.Session) error {
	fmt.Println("Commands: n(ext) p(rev) +(font) -(font) t(heme) q(uit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "n":
			if err := ctrl.GoNext(); err != nil {
				return err
			}
			showChapter(engine)
		case "p":
			if err := ctrl.GoPrevious(); err != nil {
				return err
			}
			showChapter(engine)
		case "+":
			size, err := ctrl.SetFontSize(rs, reader.FontStep)
			if err != nil {
				return err
			}
			fmt.Printf("Font size %d%%\n", size)
		case "-":
			size, err := ctrl.SetFontSize(rs, -reader.FontStep)
			if err != nil {
				return err
			}
			fmt.Printf("Font size %d%%\n", size)
		case "t":
			next := reader.ThemeLight
			if rs.Theme == reader.ThemeLight {
				next = reader.ThemeDark
			}
			if err := ctrl.SetTheme(rs, next); err != nil {
				return err
			}
			fmt.Printf("Theme %s\n", next)
		case "q":
			return nil
		case "":
		default:
			fmt.Println("Commands: n(ext) p(rev) +(font) -(font) t(heme) q(uit)")
		}
	}
}

// showChapter prints the current chapter when the native embedding is
// active; the web embedding renders in the web view instead.
func showChapter(engine reader.RenderingEngine) {
	native, ok := engine.(*reader.NativeEngine)
	if !ok {
		return
	}

	title, err := native.CurrentChapterTitle()
	if err != nil {
		return
	}
	text, err := native.CurrentChapterText()
	if err != nil {
		fmt.Printf("Could not render %s: %v\n", title, err)
		return
	}

	fmt.Printf("\n--- %s ---\n%s\n", title, text)
}

func printEvents(events <-chan reader.Event) {
	for ev := range events {
		switch ev.Kind {
		case reader.EventDisplayError:
			fmt.Printf("Could not display the book: %s\n", ev.Detail)
		case reader.EventError:
			fmt.Printf("Reader error: %s\n", ev.Detail)
		case reader.EventLocationChanged:
			fmt.Printf("Location: %s\n", ev.Location)
		}
	}
}
