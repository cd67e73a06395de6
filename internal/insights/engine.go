package insights

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"wiggies/backend/internal/cache"
	"wiggies/backend/internal/domain"
)

// Engine aggregates enriched sale rows into dashboard insights, with a
// short-lived cache in front. Cache failures degrade to recomputation and
// never fail the request.
type Engine struct {
	cache cache.InsightsCache
	ttl   time.Duration
}

func NewEngine(insightsCache cache.InsightsCache, ttl time.Duration) *Engine {
	if insightsCache == nil {
		insightsCache = cache.NoopInsightsCache{}
	}
	if ttl <= 0 {
		ttl = 20 * time.Second
	}
	return &Engine{cache: insightsCache, ttl: ttl}
}

// Compute returns the insights for the given rows, consulting the cache
// under cacheKey first. The TTL bounds staleness after ledger mutations.
func (e *Engine) Compute(ctx context.Context, cacheKey string, sales []domain.EnrichedSale) domain.Insights {
	if cacheKey != "" {
		if cached, found, err := e.cache.Get(ctx, cacheKey); err != nil {
			log.Printf("[insights] cache get failed: %v", err)
		} else if found {
			return *cached
		}
	}

	result := Aggregate(sales)

	if cacheKey != "" {
		if err := e.cache.Set(ctx, cacheKey, &result, e.ttl); err != nil {
			log.Printf("[insights] cache set failed: %v", err)
		}
	}
	return result
}

// Aggregate computes insight sums over the rows. Rows whose totals are not
// finite numbers are skipped before aggregation (skip-on-non-numeric policy)
// and counted in SkippedRows. The key sets are exactly the distinct values
// present in the input; there is no pre-declared calendar or category universe.
func Aggregate(sales []domain.EnrichedSale) domain.Insights {
	result := domain.Insights{
		SalesByCategory:    make(map[string]float64),
		SalesByDate:        make(map[string]float64),
		QuantityByCategory: make(map[string]int),
	}

	profitByProduct := make(map[string]float64)
	for _, row := range sales {
		if !isFinite(row.TotalSales) || !isFinite(row.TotalProfit) {
			result.SkippedRows++
			continue
		}

		result.TotalSales += row.TotalSales
		result.TotalProfit += row.TotalProfit
		result.SalesByCategory[row.Category] += row.TotalSales
		result.SalesByDate[row.Date] += row.TotalSales
		result.QuantityByCategory[row.Category] += row.Quantity
		profitByProduct[row.Item] += row.TotalProfit
	}

	result.ProfitByProduct = make([]domain.RankedTotal, 0, len(profitByProduct))
	for item, profit := range profitByProduct {
		result.ProfitByProduct = append(result.ProfitByProduct, domain.RankedTotal{Key: item, Total: profit})
	}
	sort.Slice(result.ProfitByProduct, func(i, j int) bool {
		a, b := result.ProfitByProduct[i], result.ProfitByProduct[j]
		if a.Total == b.Total {
			return a.Key < b.Key
		}
		return a.Total > b.Total
	})

	return result
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
