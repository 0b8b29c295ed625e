package services

import (
	"context"
	"strings"

	"github.com/username/stockfolio/src/models"
)

// MaxRecommendations caps the list shown to the user.
const MaxRecommendations = 4

var staticCandidates = []models.Recommendation{
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: "Technology", Price: 378.85, Change: 2.1, Reason: "Similar to your tech holdings"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology", Price: 875.32, Change: 3.8, Reason: "High growth potential in AI sector"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial", Price: 215.67, Change: 1.2, Reason: "Diversification into financial sector"},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare", Price: 156.78, Change: 0.8, Reason: "Stable dividend stock for portfolio balance"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Sector: "Automotive", Price: 248.42, Change: -1.5, Reason: "Innovation leader in electric vehicles"},
}

// StaticSource returns the same fixed candidates regardless of holdings.
type StaticSource struct{}

func (StaticSource) Candidates(context.Context, []models.Investment) ([]models.Recommendation, error) {
	out := make([]models.Recommendation, len(staticCandidates))
	copy(out, staticCandidates)
	return out, nil
}

type Recommender struct {
	source RecommendationSource
}

func NewRecommender(source RecommendationSource) *Recommender {
	if source == nil {
		source = StaticSource{}
	}
	return &Recommender{source: source}
}

// Recommend drops candidates the user already holds (case-insensitive symbol
// match) and returns at most MaxRecommendations in source order. With no
// holdings the result only asks the user to add some.
func (r *Recommender) Recommend(ctx context.Context, holdings []models.Investment) (models.RecommendationResult, error) {
	if len(holdings) == 0 {
		return models.RecommendationResult{NeedsHoldings: true, Recommendations: []models.Recommendation{}}, nil
	}

	candidates, err := r.source.Candidates(ctx, holdings)
	if err != nil {
		return models.RecommendationResult{}, err
	}

	owned := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		owned[strings.ToUpper(h.Symbol)] = struct{}{}
	}

	recs := make([]models.Recommendation, 0, MaxRecommendations)
	for _, c := range candidates {
		if _, held := owned[strings.ToUpper(c.Symbol)]; held {
			continue
		}
		recs = append(recs, c)
		if len(recs) == MaxRecommendations {
			break
		}
	}
	return models.RecommendationResult{Recommendations: recs}, nil
}
