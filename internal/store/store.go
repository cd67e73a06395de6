package store

import (
	"context"
	"errors"
	"time"

	"wiggies/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the persistence surface for the catalog and the sales ledger.
// Every call is one scoped unit of work against the underlying store; there is
// no transaction spanning multiple calls.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// FindProductByItem resolves an item name to a product. When several
	// products share a name, the first row in insertion order wins.
	FindProductByItem(ctx context.Context, item string) (*domain.Product, error)

	InsertSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	// ListSales returns sales joined with product category and item, in
	// insertion order, filtered to date range [from, to] when bounds are set.
	// Sales referencing a missing product are excluded (inner join).
	ListSales(ctx context.Context, from string, to string) ([]domain.EnrichedSale, error)
	CountSales(ctx context.Context) (int, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
