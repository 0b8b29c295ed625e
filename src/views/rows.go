package views

import (
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/services"
)

// TransactionRow is one rendered line of the transaction history.
type TransactionRow struct {
	ID       string
	Symbol   string
	Name     string
	Type     string
	Quantity string
	Price    string
	Amount   string // signed, e.g. "-$1,500.00"
	Sign     string
	Class    string // debit or credit
	Color    string
	Date     string
}

// TransactionRows derives the display values for txns in the order given.
// A buy is money spent and shows as a red debit; a sell shows as a green credit.
func TransactionRows(txns []models.Transaction, f Formatter) []TransactionRow {
	rows := make([]TransactionRow, 0, len(txns))
	for _, t := range txns {
		row := TransactionRow{
			ID:       t.ID,
			Symbol:   t.Symbol,
			Name:     t.Name,
			Type:     string(t.Type),
			Quantity: f.Quantity(t.Quantity),
			Price:    f.Price(t.Price),
			Date:     f.Date(t.TransactionDate),
		}
		if t.Type == models.TransactionSell {
			row.Sign, row.Class, row.Color = "+", "credit", "green"
		} else {
			row.Sign, row.Class, row.Color = "-", "debit", "red"
		}
		row.Amount = row.Sign + f.Money(t.TotalAmount)
		rows = append(rows, row)
	}
	return rows
}

var badgeColors = map[models.InvestmentType]string{
	models.InvestmentStock:      "blue",
	models.InvestmentBond:       "green",
	models.InvestmentMutualFund: "purple",
	models.InvestmentETF:        "orange",
	models.InvestmentCrypto:     "yellow",
	models.InvestmentOther:      "gray",
}

// HoldingRow is one investment card on the dashboard.
type HoldingRow struct {
	ID            string
	Symbol        string
	Name          string
	TypeLabel     string
	BadgeColor    string
	Quantity      string
	RawQuantity   float64
	PurchasePrice string
	CurrentPrice  string
	RawPrice      float64
	CurrentValue  string
	CostBasis     string
	GainLoss      string
	GainLossPct   string
	Positive      bool
}

func HoldingRows(investments []models.Investment, f Formatter) []HoldingRow {
	rows := make([]HoldingRow, 0, len(investments))
	for _, inv := range investments {
		perf := services.Performance(inv)
		color, ok := badgeColors[inv.Type]
		if !ok {
			color = badgeColors[models.InvestmentOther]
		}
		rows = append(rows, HoldingRow{
			ID:            inv.ID,
			Symbol:        inv.Symbol,
			Name:          inv.Name,
			TypeLabel:     inv.Type.Label(),
			BadgeColor:    color,
			Quantity:      f.Quantity(inv.Quantity),
			RawQuantity:   inv.Quantity,
			PurchasePrice: f.Price(inv.PurchasePrice),
			CurrentPrice:  f.Price(inv.CurrentPrice),
			RawPrice:      inv.CurrentPrice,
			CurrentValue:  f.Money(perf.CurrentValue),
			CostBasis:     f.Money(perf.CostBasis),
			GainLoss:      f.SignedMoney(perf.GainLoss),
			GainLossPct:   f.Percent(perf.GainLossPercentage),
			Positive:      perf.GainLoss >= 0,
		})
	}
	return rows
}

// MetricsView holds the four dashboard cards.
type MetricsView struct {
	TotalValue  string
	TotalCost   string
	GainLoss    string
	Performance string
	Positive    bool
}

func Metrics(m models.PortfolioMetrics, f Formatter) MetricsView {
	return MetricsView{
		TotalValue:  f.Money(m.TotalValue),
		TotalCost:   f.Money(m.TotalCost),
		GainLoss:    f.SignedMoney(m.TotalGainLoss),
		Performance: f.Percent(m.GainLossPercentage),
		Positive:    m.TotalGainLoss >= 0,
	}
}

type WatchlistRow struct {
	ID      string
	Symbol  string
	Name    string
	Sector  string
	Notes   string
	AddedAt string
}

func WatchlistRows(items []models.WatchlistItem, f Formatter) []WatchlistRow {
	rows := make([]WatchlistRow, 0, len(items))
	for _, it := range items {
		row := WatchlistRow{ID: it.ID, Symbol: it.Symbol, Name: it.Name, AddedAt: f.Date(it.AddedAt)}
		if it.Sector != nil {
			row.Sector = *it.Sector
		}
		if it.Notes != nil {
			row.Notes = *it.Notes
		}
		rows = append(rows, row)
	}
	return rows
}

type RecommendationRow struct {
	Symbol   string
	Name     string
	Sector   string
	Price    string
	Change   string
	Positive bool
	Reason   string
	Watched  bool
}

// RecommendationRows marks candidates that are already on the watchlist so
// the view can hide their add button.
func RecommendationRows(recs []models.Recommendation, watched []models.WatchlistItem, f Formatter) []RecommendationRow {
	onList := make(map[string]bool, len(watched))
	for _, w := range watched {
		onList[w.Symbol] = true
	}
	rows := make([]RecommendationRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, RecommendationRow{
			Symbol:   r.Symbol,
			Name:     r.Name,
			Sector:   r.Sector,
			Price:    f.Price(r.Price),
			Change:   f.Percent(r.Change),
			Positive: r.Change >= 0,
			Reason:   r.Reason,
			Watched:  onList[r.Symbol],
		})
	}
	return rows
}
