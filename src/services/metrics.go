package services

import (
	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/src/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeMetrics aggregates value, cost and gain over all holdings. The
// percentage is zero when there is no cost basis.
func ComputeMetrics(investments []models.Investment) models.PortfolioMetrics {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, inv := range investments {
		qty := decimal.NewFromFloat(inv.Quantity)
		totalValue = totalValue.Add(decimal.NewFromFloat(inv.CurrentPrice).Mul(qty))
		totalCost = totalCost.Add(decimal.NewFromFloat(inv.PurchasePrice).Mul(qty))
	}
	gain := totalValue.Sub(totalCost)

	return models.PortfolioMetrics{
		TotalValue:         totalValue.InexactFloat64(),
		TotalCost:          totalCost.InexactFloat64(),
		TotalGainLoss:      gain.InexactFloat64(),
		GainLossPercentage: percentOf(gain, totalCost),
	}
}

// Performance computes the per-holding equivalents of ComputeMetrics.
func Performance(inv models.Investment) models.HoldingPerformance {
	qty := decimal.NewFromFloat(inv.Quantity)
	value := decimal.NewFromFloat(inv.CurrentPrice).Mul(qty)
	cost := decimal.NewFromFloat(inv.PurchasePrice).Mul(qty)
	gain := value.Sub(cost)

	return models.HoldingPerformance{
		CurrentValue:       value.InexactFloat64(),
		CostBasis:          cost.InexactFloat64(),
		GainLoss:           gain.InexactFloat64(),
		GainLossPercentage: percentOf(gain, cost),
	}
}

func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.DivRound(whole, 16).Mul(hundred).InexactFloat64()
}
