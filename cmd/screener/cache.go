package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/redis"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis screening result cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Delete every cached screening run, e.g. after changing the taxonomy or weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheFlush(cmd.Context(), root.cfg, cmd.OutOrStdout())
		},
	})
	return cmd
}

func runCacheFlush(ctx context.Context, cfg *config.Config, out io.Writer) error {
	client, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	deleted, err := screening.NewResultCache(client, cfg.Redis.CacheTTL, nil).Invalidate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %d cached runs\n", deleted)
	return nil
}
