package commands

import (
	"context"
	"fmt"
	"os"

	"courseatlas-backend/lib/docstore"
	"courseatlas-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "siascan",
	Short: "siascan scrapes the university registry's course catalog into a local database.",
}

var dbPath *string

func init() {
	dbPath = rootCmd.PersistentFlags().String("db", "catalog.db", "The database scraped records are stored in.")
}

func openStore() docstore.Store {
	store, err := docstore.OpenSqlite(*dbPath)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	return store
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
