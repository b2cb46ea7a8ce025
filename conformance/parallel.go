package conformance

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunParallel runs n independent sessions concurrently, each on its own
// goroutine and heap. Reports come back in start order. The first session
// that cannot open or close cancels the rest.
func RunParallel(ctx context.Context, cfg *Config, n int) ([]*Report, error) {
	if n < 1 {
		n = 1
	}
	reports := make([]*Report, n)
	g, ctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Run(ctx, cfg)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	Logger().Debug("parallel run finished", zap.Int("sessions", n))
	return reports, nil
}
