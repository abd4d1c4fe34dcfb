package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// checkLegacyProducts brings rows written by the narrow products schema up
// to the canonical one.
func (a *Application) checkLegacyProducts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := a.Catalog(a.gormDB).NormalizeLegacyProducts(ctx)
	if err != nil {
		zap.L().Error("failed to normalize legacy products", zap.Int("normalized", n), zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("legacy products normalized", zap.Int("count", n))
	}
}
