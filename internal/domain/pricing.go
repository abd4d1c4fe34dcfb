package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountPercent returns (mrp - price) / mrp * 100 rounded to two places.
// A non-positive mrp yields 0.
func DiscountPercent(mrp, price float64) float64 {
	if mrp <= 0 {
		return 0
	}
	m := decimal.NewFromFloat(mrp)
	return m.Sub(decimal.NewFromFloat(price)).
		Div(m).
		Mul(hundred).
		Round(2).
		InexactFloat64()
}

// NetPrice returns mrp - discount without binary float drift.
func NetPrice(mrp, discount float64) float64 {
	return decimal.NewFromFloat(mrp).Sub(decimal.NewFromFloat(discount)).InexactFloat64()
}

// ApplyPricing fills the selling prices and every derived percentage.
// sell1 and sell5 are client supplied selling prices; nil means derive
// them from the matching absolute discount.
func (p *Product) ApplyPricing(sell1, sell5 *float64) {
	p.PurchasePrice = p.OurPurchasePrice

	if sell1 != nil {
		p.SellingPrice1 = *sell1
	} else {
		p.SellingPrice1 = NetPrice(p.MRP, p.Discount1)
	}
	if sell5 != nil {
		p.SellingPrice5 = *sell5
	} else {
		p.SellingPrice5 = NetPrice(p.MRP, p.Discount5)
	}

	p.DiscountWeGotPercent = DiscountPercent(p.MRP, p.OurPurchasePrice)
	p.DiscountPercent1 = DiscountPercent(p.MRP, p.SellingPrice1)
	p.DiscountPercent5 = DiscountPercent(p.MRP, p.SellingPrice5)
}
