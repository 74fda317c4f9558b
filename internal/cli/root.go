package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	logger  zerolog.Logger
)

// Execute builds and runs the searchd command tree, returning whatever
// error the selected subcommand returns.
func Execute(ctx context.Context) error {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "searchd",
		Short:         "federated meta-search engine daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(), newInitCmd(), newRecrawlCmd())
	return root.ExecuteContext(ctx)
}
