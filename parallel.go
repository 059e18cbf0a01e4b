package loom

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunEach invokes the pipeline once per parameter set, concurrently.
// Results are returned in the same order as the inputs. Each invocation
// gets its own State and AuditLog, so runs never share mutable state; the
// first failure cancels the remaining runs.
func RunEach(ctx context.Context, p *Pipeline, params []map[string]any) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]*Result, len(params))

	for i, ps := range params {
		g.Go(func() error {
			res, err := p.Run(ctx, ps)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
