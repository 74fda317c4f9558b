package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/privasearch/search/store/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create the database schema and seed built-in data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx := cmd.Context()

			st, err := sqlite.New(cfg.DBPath, sqlite.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			if err := st.Ensure(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			seeds := []struct {
				name string
				fn   func() error
			}{
				{"bangs", func() error { return st.SeedBuiltinBangs(ctx) }},
				{"knowledge", func() error { return st.SeedKnowledge(ctx) }},
				{"documents", func() error { return st.SeedDocuments(ctx) }},
				{"currency", func() error { return st.SeedCurrencyRates(ctx) }},
				{"dictionary", func() error { return st.SeedDictionary(ctx) }},
			}
			for _, s := range seeds {
				if err := s.fn(); err != nil {
					return fmt.Errorf("seed %s: %w", s.name, err)
				}
				logger.Info().Str("dataset", s.name).Msg("seeded")
			}
			logger.Info().Str("db", cfg.DBPath).Msg("init complete")
			return nil
		},
	}
}
