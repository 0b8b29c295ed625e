package models

// PortfolioMetrics holds the aggregate figures shown on the dashboard.
type PortfolioMetrics struct {
	TotalValue         float64 `json:"total_value"`
	TotalCost          float64 `json:"total_cost"`
	TotalGainLoss      float64 `json:"total_gain_loss"`
	GainLossPercentage float64 `json:"gain_loss_percentage"`
}

// HoldingPerformance holds the per-holding equivalents of PortfolioMetrics.
type HoldingPerformance struct {
	CurrentValue       float64 `json:"current_value"`
	CostBasis          float64 `json:"cost_basis"`
	GainLoss           float64 `json:"gain_loss"`
	GainLossPercentage float64 `json:"gain_loss_percentage"`
}

// Dashboard is everything the dashboard renders for one user.
// Portfolio is nil when the user has none yet.
type Dashboard struct {
	Portfolio    *Portfolio       `json:"portfolio"`
	Investments  []Investment     `json:"investments"`
	Transactions []Transaction    `json:"transactions"`
	Metrics      PortfolioMetrics `json:"metrics"`
}

// Recommendation is a candidate symbol suggested to the user.
type Recommendation struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Sector string  `json:"sector"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"` // day change, percent
	Reason string  `json:"reason"`
}

// RecommendationResult wraps the generated list. NeedsHoldings is set when the
// user holds nothing and should be prompted to add investments instead.
type RecommendationResult struct {
	NeedsHoldings   bool             `json:"needs_holdings"`
	Recommendations []Recommendation `json:"recommendations"`
}
