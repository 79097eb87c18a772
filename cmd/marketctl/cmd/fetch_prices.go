package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/alphavantage"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/iexcloud"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/config"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/service/quotes"
)

var fetchPricesCmd = &cobra.Command{
	Use:   "fetch-prices <symbols...>",
	Short: "Resolve quotes for the given symbols once and print them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetchPrices,
}

func runFetchPrices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	quoteCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer quoteCache.Close()

	svc := quotes.NewService(
		iexcloud.NewClient(cfg.IEX, quoteCache),
		alphavantage.NewClient(cfg.AlphaVantage, quoteCache),
		cfg.Stream.BatchLimit,
	)

	result, err := svc.GetMultipleQuotes(ctx, args)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	fmt.Printf("%-12s %12s %10s %9s  %s\n", "SYMBOL", "PRICE", "CHANGE", "CHG%", "SOURCE")
	for _, q := range result.Quotes {
		fmt.Printf("%-12s %12s %10s %8.2f%%  %s\n",
			q.Symbol, q.Price.StringFixed(2), q.Change.StringFixed(2), q.ChangePercent, q.Source)
	}

	if result.Failed > 0 {
		fmt.Printf("\n%d of %d symbols failed: %s\n",
			result.Failed, result.Requested, strings.Join(result.FailedSymbols, ", "))
	}

	return nil
}
