// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	PageLanding   = "landing"
	PageAuth      = "auth"
	PageDashboard = "dashboard"
)

// Base is embedded by every page model. AuthPath and DashboardPath are the
// mount points of the page routes; empty means the defaults.
type Base struct {
	Title         string
	CSRFToken     string
	Email         string
	Notices       []services.Notice
	AuthPath      string
	DashboardPath string
}

const (
	DefaultAuthPath      = "/auth"
	DefaultDashboardPath = "/dashboard"
)

// AuthRoot is the prefix form actions under the auth routes are built from.
func (b Base) AuthRoot() string {
	if b.AuthPath == "" {
		return DefaultAuthPath
	}
	return strings.TrimRight(b.AuthPath, "/")
}

func (b Base) DashboardRoot() string {
	if b.DashboardPath == "" {
		return DefaultDashboardPath
	}
	return strings.TrimRight(b.DashboardPath, "/")
}

type LandingPage struct {
	Base
}

type AuthPage struct {
	Base
	SignUp        bool
	FormEmail     string
	Error         string
	Fields        services.FieldErrors
	GoogleEnabled bool
}

// FormState re-populates a rejected form.
type FormState struct {
	Values url.Values
	Fields services.FieldErrors
}

func (s FormState) Get(field string) string {
	if s.Values == nil {
		return ""
	}
	return s.Values.Get(field)
}

type DashboardPage struct {
	Base
	HasPortfolio    bool
	PortfolioID     string
	PortfolioName   string
	Metrics         MetricsView
	Holdings        []HoldingRow
	Transactions    []TransactionRow
	Watchlist       []WatchlistRow
	WatchlistFailed bool
	NeedsHoldings   bool
	Recommendations []RecommendationRow
	InvestmentTypes []TypeOption
	AddInvestment   FormState
	AddWatchlist    FormState
}

type TypeOption struct {
	Value string
	Label string
}

func investmentTypeOptions() []TypeOption {
	opts := make([]TypeOption, 0, len(models.InvestmentTypes))
	for _, t := range models.InvestmentTypes {
		opts = append(opts, TypeOption{Value: string(t), Label: t.Label()})
	}
	return opts
}

// DashboardInput is what the handler loaded for one dashboard render.
type DashboardInput struct {
	Dashboard       models.Dashboard
	Watchlist       []models.WatchlistItem
	WatchlistFailed bool
	Recommendations models.RecommendationResult
}

// NewDashboardPage builds the view model from loaded data.
func NewDashboardPage(base Base, in DashboardInput, f Formatter) DashboardPage {
	page := DashboardPage{
		Base:            base,
		Metrics:         Metrics(in.Dashboard.Metrics, f),
		Holdings:        HoldingRows(in.Dashboard.Investments, f),
		Transactions:    TransactionRows(in.Dashboard.Transactions, f),
		Watchlist:       WatchlistRows(in.Watchlist, f),
		WatchlistFailed: in.WatchlistFailed,
		NeedsHoldings:   in.Recommendations.NeedsHoldings,
		Recommendations: RecommendationRows(in.Recommendations.Recommendations, in.Watchlist, f),
		InvestmentTypes: investmentTypeOptions(),
	}
	if p := in.Dashboard.Portfolio; p != nil {
		page.HasPortfolio = true
		page.PortfolioID = p.ID
		page.PortfolioName = p.Name
	}
	if page.Title == "" {
		page.Title = "Portfolio Dashboard"
	}
	return page
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageLanding, PageAuth, PageDashboard} {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
