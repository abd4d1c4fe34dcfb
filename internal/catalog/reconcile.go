package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReconcileResult summarizes one ReconcileImages pass.
type ReconcileResult struct {
	Confirmed int `json:"confirmed"`
	Removed   int `json:"removed"`
	Dropped   int `json:"dropped"`
}

// ReconcileImages settles uploads left pending by a crash or failed
// confirmation. Pending uploads created before cutoff are confirmed when a
// product references the file; otherwise the file is removed and the
// record dropped.
func (s *Service) ReconcileImages(ctx context.Context, cutoff time.Time) (ReconcileResult, error) {
	var res ReconcileResult
	pending, err := s.repo.ListPendingUploads(ctx, cutoff)
	if err != nil {
		return res, err
	}

	for _, u := range pending {
		refs, err := s.repo.CountProductsWithImage(ctx, u.Filename)
		if err != nil {
			return res, err
		}
		if refs > 0 {
			if err := s.repo.ConfirmUpload(ctx, u.ID); err != nil {
				return res, err
			}
			res.Confirmed++
			continue
		}
		if s.images != nil {
			if err := s.images.Remove(u.Filename); err != nil {
				zap.L().Warn("failed to remove stale image", zap.String("filename", u.Filename), zap.Error(err))
				continue
			}
			res.Removed++
		}
		if err := s.repo.DeleteUpload(ctx, u.ID); err != nil {
			return res, err
		}
		res.Dropped++
	}

	if len(pending) > 0 {
		zap.L().Info("image uploads reconciled",
			zap.Int("confirmed", res.Confirmed),
			zap.Int("removed", res.Removed),
			zap.Int("dropped", res.Dropped))
	}
	return res, nil
}

// NormalizeLegacyProducts fills the purchase and selling price columns of
// rows written by the narrow schema and recomputes their percentages.
// The legacy purchase_price becomes our_purchase_price.
func (s *Service) NormalizeLegacyProducts(ctx context.Context) (int, error) {
	rows, err := s.repo.ListLegacyProducts(ctx)
	if err != nil {
		return 0, err
	}
	for i := range rows {
		p := &rows[i]
		if p.OurPurchasePrice == 0 {
			p.OurPurchasePrice = p.PurchasePrice
		}
		p.ApplyPricing(nil, nil)
		p.UpdatedAt = time.Now()
		if _, err := s.repo.UpdateProduct(ctx, p, domainPricingColumns); err != nil {
			return i, err
		}
	}
	if len(rows) > 0 {
		zap.L().Info("normalized legacy products", zap.Int("count", len(rows)))
	}
	return len(rows), nil
}

var domainPricingColumns = []string{
	"purchase_price", "our_purchase_price", "discount_we_got_percent",
	"selling_price_1", "selling_price_5", "discount_percent_1", "discount_percent_5",
	"updated_at",
}
