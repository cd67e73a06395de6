package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wiggies/backend/internal/domain"
	"wiggies/backend/internal/insights"
	"wiggies/backend/internal/store"
	"wiggies/backend/internal/xid"
)

var (
	ErrProductNotFound = fmt.Errorf("product %w", store.ErrNotFound)
	ErrSaleNotFound    = fmt.Errorf("sale %w", store.ErrNotFound)
	ErrInvalidRange    = errors.New("invalid date range")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service is the sales ledger engine: the only place where catalog lookups
// and ledger writes meet, and the only component holding business rules.
type Service struct {
	repo          store.Repository
	insights      *insights.Engine
	repriceOnEdit bool
}

// New builds the engine. repriceOnEdit selects the edit policy: when true
// (the historical behavior) EditSale recomputes totals from current catalog
// prices; when false it keeps the unit economics the sale was created with.
func New(repo store.Repository, insightsEngine *insights.Engine, repriceOnEdit bool) *Service {
	return &Service{
		repo:          repo,
		insights:      insightsEngine,
		repriceOnEdit: repriceOnEdit,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Item = strings.TrimSpace(req.Item)
	req.Category = strings.TrimSpace(req.Category)
	if req.Item == "" || req.Category == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if req.SRP < 0 || req.DealerPrice < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:          xid.New("prod"),
		Category:    req.Category,
		Item:        req.Item,
		SRP:         req.SRP,
		DealerPrice: req.DealerPrice,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("item=%s,srp=%.2f,dealer=%.2f", created.Item, created.SRP, created.DealerPrice))
	return *created, nil
}

// AddSale resolves the product by item name (first match wins), snapshots
// totals from the current catalog prices and inserts the ledger row. The
// resolve and the insert are two separate store operations, not one
// transaction; a concurrent catalog change between them can be observed.
// There is no stock decrement anywhere in this design.
func (s *Service) AddSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	req.Item = strings.TrimSpace(req.Item)
	if req.Item == "" || req.Quantity < 1 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return domain.Sale{}, store.ErrInvalidInput
	}

	product, err := s.repo.FindProductByItem(ctx, req.Item)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Sale{}, ErrProductNotFound
		}
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		ID:          xid.New("sale"),
		ProductID:   product.ID,
		Quantity:    req.Quantity,
		TotalSales:  float64(req.Quantity) * product.SRP,
		TotalProfit: float64(req.Quantity) * (product.SRP - product.DealerPrice),
		Date:        date,
	}

	created, err := s.repo.InsertSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_add", "sale", created.ID, fmt.Sprintf("item=%s,qty=%d,total=%.2f", product.Item, created.Quantity, created.TotalSales))
	return *created, nil
}

// EditSale overwrites quantity, totals and date of an existing sale. Under
// the reprice-on-edit policy the totals come from the product's current
// catalog prices, so editing a sale after a price change silently changes
// its effective unit price. With the policy off, the unit price and unit
// profit are reconstructed from the stored snapshot and reused.
func (s *Service) EditSale(ctx context.Context, saleID string, req domain.SaleUpdateRequest) (domain.Sale, error) {
	if req.Quantity < 1 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	date, err := normalizeDate(req.Date)
	if err != nil {
		return domain.Sale{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Sale{}, ErrSaleNotFound
		}
		return domain.Sale{}, err
	}

	var unitPrice, unitProfit float64
	if s.repriceOnEdit {
		product, err := s.repo.GetProduct(ctx, existing.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Sale{}, ErrProductNotFound
			}
			return domain.Sale{}, err
		}
		unitPrice = product.SRP
		unitProfit = product.SRP - product.DealerPrice
	} else {
		unitPrice = existing.TotalSales / float64(existing.Quantity)
		unitProfit = existing.TotalProfit / float64(existing.Quantity)
	}

	updated, err := s.repo.UpdateSale(ctx, domain.Sale{
		ID:          existing.ID,
		ProductID:   existing.ProductID,
		Quantity:    req.Quantity,
		TotalSales:  float64(req.Quantity) * unitPrice,
		TotalProfit: float64(req.Quantity) * unitProfit,
		Date:        date,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Sale{}, ErrSaleNotFound
		}
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_edit", "sale", updated.ID, fmt.Sprintf("qty=%d,date=%s", updated.Quantity, updated.Date))
	return *updated, nil
}

func (s *Service) DeleteSale(ctx context.Context, saleID string) error {
	if err := s.repo.DeleteSale(ctx, saleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSaleNotFound
		}
		return err
	}
	s.logAudit(ctx, "sale_delete", "sale", saleID, "")
	return nil
}

// QuerySales returns the enriched ledger filtered to the inclusive date
// range, in insertion order. An inverted range fails before any store
// access; an empty result is not an error. With GroupBy set, the response
// additionally carries per-key sums over the filtered rows.
func (s *Service) QuerySales(ctx context.Context, query domain.SalesQuery) (domain.SalesQueryResponse, error) {
	from, to, err := validateRange(query.From, query.To)
	if err != nil {
		return domain.SalesQueryResponse{}, err
	}
	if query.GroupBy != "" && query.GroupBy != domain.GroupByDate && query.GroupBy != domain.GroupByCategory {
		return domain.SalesQueryResponse{}, store.ErrInvalidInput
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.SalesQueryResponse{}, err
	}

	resp := domain.SalesQueryResponse{Sales: sales}
	if query.GroupBy != "" {
		resp.Groups = groupSales(sales, query.GroupBy)
	}
	return resp, nil
}

// ComputeInsights aggregates the filtered ledger into the dashboard report.
func (s *Service) ComputeInsights(ctx context.Context, fromRaw string, toRaw string) (domain.Insights, error) {
	from, to, err := validateRange(fromRaw, toRaw)
	if err != nil {
		return domain.Insights{}, err
	}

	sales, err := s.repo.ListSales(ctx, from, to)
	if err != nil {
		return domain.Insights{}, err
	}

	cacheKey := fmt.Sprintf("insights:%s:%s", from, to)
	return s.insights.Compute(ctx, cacheKey, sales), nil
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

// groupSales sums quantity and totals per grouping key. The key set is
// exactly the distinct values present in the rows; buckets come back in
// first-seen order, which for date groups follows the ledger.
func groupSales(sales []domain.EnrichedSale, groupBy string) []domain.GroupTotal {
	order := make([]string, 0, 16)
	buckets := make(map[string]*domain.GroupTotal, 16)

	for _, row := range sales {
		key := row.Date
		if groupBy == domain.GroupByCategory {
			key = row.Category
		}
		bucket, exists := buckets[key]
		if !exists {
			bucket = &domain.GroupTotal{Key: key}
			buckets[key] = bucket
			order = append(order, key)
		}
		bucket.Quantity += row.Quantity
		bucket.TotalSales += row.TotalSales
		bucket.TotalProfit += row.TotalProfit
	}

	result := make([]domain.GroupTotal, 0, len(order))
	for _, key := range order {
		result = append(result, *buckets[key])
	}
	return result
}

// validateRange normalizes and checks the bounds without touching the store.
func validateRange(fromRaw string, toRaw string) (string, string, error) {
	from, err := normalizeOptionalDate(fromRaw)
	if err != nil {
		return "", "", ErrInvalidRange
	}
	to, err := normalizeOptionalDate(toRaw)
	if err != nil {
		return "", "", ErrInvalidRange
	}
	if from != "" && to != "" && from > to {
		return "", "", ErrInvalidRange
	}
	return from, to, nil
}

func normalizeOptionalDate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return normalizeDate(raw)
}

func normalizeDate(raw string) (string, error) {
	parsed, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return parsed.Format(domain.DateLayout), nil
}
