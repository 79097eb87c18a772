package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/cache"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/infra/database/postgres"
	"github.com/Mohammad-Azeem/catalyst-markets/internal/pkg/config"
	iposervice "github.com/Mohammad-Azeem/catalyst-markets/internal/service/ipo"
)

var adviseIPOsCmd = &cobra.Command{
	Use:   "advise-ipos",
	Short: "Recompute advisor verdicts for every IPO on file",
	RunE:  runAdviseIPOs,
}

func runAdviseIPOs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	dbPool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbPool.Close()

	quoteCache, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer quoteCache.Close()

	svc := iposervice.NewService(postgres.NewIPORepository(dbPool), quoteCache)

	revised, err := svc.ReviseAll(ctx)
	if err != nil {
		return fmt.Errorf("revise ipos: %w", err)
	}

	fmt.Printf("revised verdicts for %d ipos\n", revised)
	return nil
}
