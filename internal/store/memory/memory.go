package memory

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"wiggies/backend/internal/domain"
	"wiggies/backend/internal/store"
	"wiggies/backend/internal/xid"
)

// Store is an in-memory repository for dev/demo mode and tests. Insertion
// order is preserved for products and sales because the catalog's
// first-match-by-name policy and the ledger listing both depend on it.
type Store struct {
	mu           sync.RWMutex
	productOrder []string
	products     map[string]domain.Product
	saleOrder    []string
	sales        map[string]domain.Sale
	auditLogs    []domain.AuditLog
	users        map[string]domain.UserAccount
}

// SeedUsers builds the initial user accounts for an empty store. Credentials
// are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD environment
// variables. If unset, hardcoded dev defaults are used with a warning.
func SeedUsers() []domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := make([]domain.UserAccount, 0, 2)
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"staff", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[store] failed to hash seed password for %s: %v", u.username, err)
		}
		users = append(users, domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		})
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SeedCatalog is the Wiggies product catalog loaded into an empty store.
var SeedCatalog = []domain.Product{
	{Category: "Premium IceCream", Item: "Regular Gallon", SRP: 560, DealerPrice: 460},
	{Category: "Premium IceCream", Item: "Regular 1.5L", SRP: 270, DealerPrice: 230},
	{Category: "Premium IceCream", Item: "Regular 750ml", SRP: 155, DealerPrice: 135},
	{Category: "Supreme", Item: "Supreme Gallon", SRP: 610, DealerPrice: 480},
	{Category: "Supreme", Item: "Supreme 1.5L", SRP: 300, DealerPrice: 250},
	{Category: "Supreme", Item: "Supreme 750ml", SRP: 185, DealerPrice: 160},
	{Category: "Others", Item: "Sugar cone", SRP: 40, DealerPrice: 25},
	{Category: "Others", Item: "Wafer Cone", SRP: 40, DealerPrice: 25},
	{Category: "Others", Item: "Styro", SRP: 30, DealerPrice: 42},
	{Category: "Novelty", Item: "Festive Cone", SRP: 22, DealerPrice: 20},
	{Category: "Novelty", Item: "Festive Stick", SRP: 22, DealerPrice: 20},
	{Category: "Novelty", Item: "Festive Cup", SRP: 30, DealerPrice: 26},
	{Category: "Novelty", Item: "Dluxe Bar", SRP: 45, DealerPrice: 40},
	{Category: "Novelty", Item: "Icy Pop", SRP: 10, DealerPrice: 9},
	{Category: "Novelty", Item: "Vanilla Crunch", SRP: 25, DealerPrice: 22},
	{Category: "Novelty", Item: "Party Cup", SRP: 15, DealerPrice: 13},
	{Category: "Novelty", Item: "Sundae", SRP: 20, DealerPrice: 18},
	{Category: "Novelty", Item: "Pint (reg)", SRP: 75, DealerPrice: 67},
	{Category: "Novelty", Item: "Pint (S)", SRP: 95, DealerPrice: 80},
	{Category: "Novelty", Item: "Cafe Mocha (1.5L)", SRP: 260, DealerPrice: 240},
	{Category: "Novelty", Item: "Cafe Mocha (750ml)", SRP: 145, DealerPrice: 135},
	{Category: "Novelty", Item: "Cookies & Cream (1.5L)", SRP: 260, DealerPrice: 240},
	{Category: "Novelty", Item: "Cookies & Cream (750ml)", SRP: 145, DealerPrice: 135},
}

func NewSeeded() *Store {
	s := &Store{
		productOrder: make([]string, 0, len(SeedCatalog)),
		products:     make(map[string]domain.Product, len(SeedCatalog)),
		saleOrder:    make([]string, 0, 64),
		sales:        make(map[string]domain.Sale),
		auditLogs:    make([]domain.AuditLog, 0, 128),
		users:        make(map[string]domain.UserAccount, 2),
	}
	for _, u := range SeedUsers() {
		s.users[u.Username] = u
	}
	for _, p := range SeedCatalog {
		p.ID = xid.New("prod")
		s.productOrder = append(s.productOrder, p.ID)
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		products = append(products, s.products[id])
	}
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.Item == "" || product.Category == "" {
		return nil, store.ErrInvalidInput
	}
	if product.SRP < 0 || product.DealerPrice < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.ErrInvalidInput
	}

	s.productOrder = append(s.productOrder, product.ID)
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) FindProductByItem(_ context.Context, item string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// First match in insertion order wins; item names are not unique.
	for _, id := range s.productOrder {
		if s.products[id].Item == item {
			match := s.products[id]
			return &match, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ProductID == "" || sale.Quantity < 1 || sale.Date == "" {
		return nil, store.ErrInvalidInput
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.ErrInvalidInput
	}

	s.saleOrder = append(s.saleOrder, sale.ID)
	s.sales[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.sales[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.sales[sale.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if sale.Quantity < 1 || sale.Date == "" {
		return nil, store.ErrInvalidInput
	}

	// Product reference is immutable after creation.
	sale.ProductID = existing.ProductID
	s.sales[sale.ID] = sale
	updated := sale
	return &updated, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.sales, id)
	for i, saleID := range s.saleOrder {
		if saleID == id {
			s.saleOrder = append(s.saleOrder[:i], s.saleOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ListSales(_ context.Context, from string, to string) ([]domain.EnrichedSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.EnrichedSale, 0, len(s.saleOrder))
	for _, id := range s.saleOrder {
		sale := s.sales[id]
		if from != "" && sale.Date < from {
			continue
		}
		if to != "" && sale.Date > to {
			continue
		}
		product, exists := s.products[sale.ProductID]
		if !exists {
			// Inner-join semantics: orphaned sales are excluded.
			continue
		}
		result = append(result, domain.EnrichedSale{
			Sale:     sale,
			Category: product.Category,
			Item:     product.Item,
		})
	}
	return result, nil
}

func (s *Store) CountSales(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales), nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.auditLogs[i]
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && entry.CreatedAt.After(to) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}
