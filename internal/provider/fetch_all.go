package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	readings "renewable-monitor/internal/readings/domain"
)

// Source is the data-fetch contract consumed by the session.
type Source interface {
	Fetch(ctx context.Context, source readings.Source, start, end time.Time) ([]readings.Reading, error)
}

// FetchAll fetches several sources concurrently and merges the results by
// timestamp. Partial results are kept; per-source errors are joined.
func FetchAll(ctx context.Context, src Source, sources []readings.Source, start, end time.Time) ([]readings.Reading, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, ErrInvalidRange
	}
	results := make([][]readings.Reading, len(sources))
	errs := make([]error, len(sources))

	// Plain Group: one failed source must not cancel the others, and each
	// source's error is kept in errs since Wait reports only the first.
	var g errgroup.Group
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			rs, err := src.Fetch(ctx, source, start, end)
			results[i] = rs
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", source, err)
			}
			return errs[i]
		})
	}
	waitErr := g.Wait()

	var merged []readings.Reading
	for _, rs := range results {
		merged = append(merged, rs...)
	}
	merged = readings.SortByTime(merged)
	if waitErr == nil {
		return merged, nil
	}
	return merged, errors.Join(errs...)
}

// FetchAll fetches several sources with this client.
func (c *Client) FetchAll(ctx context.Context, sources []readings.Source, start, end time.Time) ([]readings.Reading, error) {
	return FetchAll(ctx, c, sources, start, end)
}
