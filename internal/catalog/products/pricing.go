package products

import "math"

// DiscountedPrice derives the sale price from the base price and an optional
// discount percentage, rounded to two decimals. A nil or non-positive
// percentage yields no discounted price, not the base price.
func DiscountedPrice(price float64, pct *float64) *float64 {
	if pct == nil || *pct <= 0 {
		return nil
	}
	discounted := math.Round(price*(1-*pct/100)*100) / 100
	return &discounted
}
