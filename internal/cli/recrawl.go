package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/privasearch/search/pkg/recrawler"
	"github.com/privasearch/search/store/sqlite"
)

func newRecrawlCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recrawl",
		Short: "refetch a batch of previously crawled seeds (C10)",
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

			rc := cfg.Recrawler
			pcfg := recrawler.Config{
				Workers:             rc.Workers,
				DNSWorkers:          rc.DNSWorkers,
				Timeout:             time.Duration(rc.TimeoutMs) * time.Millisecond,
				BatchSize:           rc.BatchSize,
				TransportShards:     rc.TransportShards,
				MaxConnsPerDomain:   rc.MaxConnsPerDomain,
				DomainFailThreshold: rc.DomainFailThreshold,
				Resume:              rc.Resume,
				TwoPass:             rc.TwoPass,
			}
			p := recrawler.New(recrawler.Stores{
				Seeds:   st.CrawlSeeds(),
				State:   st.CrawlState(),
				Results: st.CrawlResults(),
			}, pcfg, logger)

			stats, err := p.Run(ctx, limit)
			if err != nil {
				return fmt.Errorf("recrawl: %w", err)
			}
			logger.Info().
				Int("fetched", stats.Fetched).
				Int("errored", stats.Errored).
				Int("domainsSkipped", stats.DomainsSkipped).
				Msg("recrawl complete")
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5000, "maximum number of pending seeds to refetch")
	return cmd
}
