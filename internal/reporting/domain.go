package reporting

import "time"

// Summary aggregates committed sales in a range plus today's figures.
type Summary struct {
	SalesCount   int     `json:"sales_count"`
	Revenue      float64 `json:"revenue"`
	ItemsSold    int     `json:"items_sold"`
	AvgTicket    float64 `json:"avg_ticket"`
	TodayCount   int     `json:"today_count"`
	TodayRevenue float64 `json:"today_revenue"`
}

// DailyPoint is one calendar day in a sales series. Days without sales are
// present with zero values.
type DailyPoint struct {
	Date  string  `json:"date"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// TopProduct ranks a product by units sold in a range.
type TopProduct struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Units       int     `json:"units"`
	Revenue     float64 `json:"revenue"`
}

// Breakdown is one bucket of a grouped aggregation, such as sales grouped
// by payment method, seller, category or size.
type Breakdown struct {
	Key   int64   `json:"key"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// LowStockItem is a product-size variant at or below the alert threshold.
type LowStockItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	SizeName    string `json:"size_name"`
	Stock       int    `json:"stock"`
}

// Dashboard is the composite payload for the admin dashboard view.
type Dashboard struct {
	Summary         Summary      `json:"summary"`
	Daily           []DailyPoint `json:"daily"`
	TopProducts     []TopProduct `json:"top_products"`
	ByPaymentMethod []Breakdown  `json:"by_payment_method"`
	BySeller        []Breakdown  `json:"by_seller"`
	ByCategory      []Breakdown  `json:"by_category"`
	BySize          []Breakdown  `json:"by_size"`
}

// Filter narrows every dashboard aggregation to one seller, payment
// method, category or product. Zero values leave a dimension open.
type Filter struct {
	SellerID        int64
	PaymentMethodID int64
	CategoryID      int64
	ProductID       int64
}

// DateRange bounds an aggregation. From and To are inclusive calendar days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days the range spans.
func (r DateRange) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}
