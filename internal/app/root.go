package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mequqqe1/kazbooks-app/internal/api"
	"github.com/mequqqe1/kazbooks-app/internal/config"
	"github.com/mequqqe1/kazbooks-app/internal/offline"
	"github.com/mequqqe1/kazbooks-app/internal/reader"
	"github.com/mequqqe1/kazbooks-app/internal/session"
)

var (
	cfg    *config.Config
	sess   *session.Store
	client *api.Client
	store  *offline.Store
)

var rootCmd = &cobra.Command{
	Use:   "kazbooks",
	Short: "Bookstore client: browse the catalog, buy books, read EPUBs online or offline",
	Long: `kazbooks is a client for the kazbooks digital bookstore.

Catalog, licensing and payments live on the server; this client signs in,
lists books, manages the owned-book library, downloads licensed EPUBs for
offline reading and renders them with an embedded EPUB engine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		sess = session.NewStore(cfg.StorageRoot, cfg.Logger)
		client = api.NewClient(cfg.APIBaseURL, sess, cfg.HTTPTimeout, cfg.Logger)
		store = offline.NewStore(cfg.BooksDir, cfg.APIBaseURL, sess, cfg.HTTPTimeout, cfg.Logger)
		return nil
	}

	rootCmd.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newProfileCmd(),
		newRefreshCmd(),
		newLogoutCmd(),
		newBooksCmd(),
		newBookCmd(),
		newLibraryCmd(),
		newBuyCmd(),
		newDownloadCmd(),
		newEvictCmd(),
		newReadCmd(),
	)
}

// newEngine builds the rendering engine selected at composition time.
func newEngine() reader.RenderingEngine {
	if cfg.Engine == config.EngineWebSandbox {
		return reader.NewWebSandboxEngine(cfg.Logger)
	}
	return reader.NewNativeEngine(cfg.Logger)
}

func newController(engine reader.RenderingEngine) *reader.Controller {
	return reader.NewController(store, engine, cfg.APIBaseURL, sess,
		cfg.ViewWidth, cfg.ViewHeight, cfg.Logger)
}
