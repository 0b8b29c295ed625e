package views

import (
	"math"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Formatter turns raw numbers and timestamps into display strings for one request.
type Formatter struct {
	currency string
	layout   string
	loc      *time.Location
}

func NewFormatter(currency, layout string, loc *time.Location) Formatter {
	if currency == "" {
		currency = money.USD
	}
	if layout == "" {
		layout = "Jan 2, 2006 3:04 PM"
	}
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{currency: currency, layout: layout, loc: loc}
}

// ResolveLocation loads an IANA zone name, falling back to UTC.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (f Formatter) currencyInfo() money.Currency {
	// money.New never returns a nil currency, GetCurrency does for unknown codes.
	return *money.New(0, f.currency).Currency()
}

const invalidAmount = "n/a"

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Money formats an amount in major units, e.g. 1500 -> "$1,500.00".
// Amounts beyond int64 minor units are printed without grouping.
func (f Formatter) Money(v float64) string {
	if !finite(v) {
		return invalidAmount
	}
	cur := f.currencyInfo()
	d := decimal.NewFromFloat(v)
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return cur.Grapheme + d.StringFixed(int32(cur.Fraction))
	}
	return cur.Formatter().Format(minor.IntPart())
}

// SignedMoney prefixes non-negative amounts with "+".
func (f Formatter) SignedMoney(v float64) string {
	if finite(v) && v >= 0 {
		return "+" + f.Money(v)
	}
	return f.Money(v)
}

// Price formats a per-unit price with two decimals and no currency grouping.
func (f Formatter) Price(v float64) string {
	if !finite(v) {
		return invalidAmount
	}
	return f.currencyInfo().Grapheme + decimal.NewFromFloat(v).StringFixed(2)
}

// Percent rounds to two decimals and adds an explicit sign.
func (f Formatter) Percent(v float64) string {
	if !finite(v) {
		return invalidAmount
	}
	d := decimal.NewFromFloat(v).Round(2)
	if !d.IsNegative() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// Quantity prints up to four decimals without trailing zeros.
func (f Formatter) Quantity(v float64) string {
	if !finite(v) {
		return invalidAmount
	}
	return decimal.NewFromFloat(v).Round(4).String()
}

func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(f.layout)
}
