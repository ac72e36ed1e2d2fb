package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/classify/internal/repositories"
	"github.com/desertthunder/classify/internal/shared"
	"github.com/desertthunder/classify/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) requireCache() (*repositories.TagCacheRepository, error) {
	cache, err := r.tagCache()
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: database path", shared.ErrMissingConfig)
	}
	return cache, nil
}

// CacheStats prints the number of cached and expired tag entries.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.requireCache()
	if err != nil {
		return err
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	rows := [][]string{
		{"entries", strconv.Itoa(stats.Entries)},
		{"expired", strconv.Itoa(stats.Expired)},
		{"ttl", fmt.Sprintf("%dh", r.cfg().Database.TagTTLHours)},
	}
	return r.writePlainln(ui.Styles.Table([]string{"TAG CACHE", "VALUE"}, rows, -1))
}

// CacheClear removes every cached entry, or only expired ones with --expired.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.requireCache()
	if err != nil {
		return err
	}

	var n int64
	if cmd.Bool("expired") {
		n, err = cache.Prune(ctx)
	} else {
		n, err = cache.Clear(ctx)
	}
	if err != nil {
		return err
	}

	r.logger.Info("tag cache cleared", "removed", n, "expired_only", cmd.Bool("expired"))
	return r.writePlainln(ui.Styles.OK("Removed %d cached entries", n))
}
