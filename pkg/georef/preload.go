package georef

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Preload warms the province cache. With the default fallback policy it
// only fails on context cancellation.
func Preload(ctx context.Context, c Client, max int) error {
	start := time.Now()
	provinces, err := c.Provinces(ctx, "", max)
	if err != nil {
		return eris.Wrap(err, "georef: preload provinces")
	}
	zap.L().Info("georef: provinces preloaded",
		zap.Int("count", len(provinces)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
