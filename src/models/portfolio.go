// src/models/portfolio.go
package models

import (
	"fmt"
	"strings"
	"time"
)

// Portfolio is a user's container for holdings and their transaction history.
// Each user owns exactly one.
type Portfolio struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// InvestmentType classifies a holding.
type InvestmentType string

const (
	InvestmentStock      InvestmentType = "stock"
	InvestmentBond       InvestmentType = "bond"
	InvestmentMutualFund InvestmentType = "mutual_fund"
	InvestmentETF        InvestmentType = "etf"
	InvestmentCrypto     InvestmentType = "crypto"
	InvestmentOther      InvestmentType = "other"
)

// InvestmentTypes lists the valid types in display order.
var InvestmentTypes = []InvestmentType{
	InvestmentStock,
	InvestmentBond,
	InvestmentMutualFund,
	InvestmentETF,
	InvestmentCrypto,
	InvestmentOther,
}

var investmentTypeLabels = map[InvestmentType]string{
	InvestmentStock:      "Stock",
	InvestmentBond:       "Bond",
	InvestmentMutualFund: "Mutual Fund",
	InvestmentETF:        "ETF",
	InvestmentCrypto:     "Cryptocurrency",
	InvestmentOther:      "Other",
}

// ParseInvestmentType validates s against the fixed enum.
func ParseInvestmentType(s string) (InvestmentType, error) {
	t := InvestmentType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := investmentTypeLabels[t]; !ok {
		return "", fmt.Errorf("unknown investment type %q", s)
	}
	return t, nil
}

// Label returns the human readable name.
func (t InvestmentType) Label() string {
	if l, ok := investmentTypeLabels[t]; ok {
		return l
	}
	return investmentTypeLabels[InvestmentOther]
}

// Investment is a quantity of a symbol held at a recorded purchase price
// and a current mark price.
type Investment struct {
	ID            string         `json:"id"`
	PortfolioID   string         `json:"portfolio_id"`
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Type          InvestmentType `json:"type"`
	PurchasePrice float64        `json:"purchase_price"`
	Quantity      float64        `json:"quantity"`
	CurrentPrice  float64        `json:"current_price"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// Transaction is an immutable record of a buy or sell event. InvestmentID is a
// reference only: the investment may have been deleted since.
type Transaction struct {
	ID              string          `json:"id"`
	PortfolioID     string          `json:"portfolio_id"`
	InvestmentID    string          `json:"investment_id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Type            TransactionType `json:"type"`
	Quantity        float64         `json:"quantity"`
	Price           float64         `json:"price"`
	TotalAmount     float64         `json:"total_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// WatchlistItem is a tracked symbol that is not necessarily held.
// Sector and Notes are nil when left blank.
type WatchlistItem struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PortfolioID string    `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Sector      *string   `json:"sector"`
	Notes       *string   `json:"notes"`
	AddedAt     time.Time `json:"added_at"`
}
