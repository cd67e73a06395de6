package domain

import "time"

// Product is a catalog entry. Prices are read-only from the ledger's
// perspective: sales snapshot them at write time and never mutate them.
type Product struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Item        string  `json:"item"`
	SRP         float64 `json:"srp"`
	DealerPrice float64 `json:"dealer_price"`
}

type ProductCreateRequest struct {
	Category    string  `json:"category"`
	Item        string  `json:"item"`
	SRP         float64 `json:"srp"`
	DealerPrice float64 `json:"dealer_price"`
}

// Sale is a ledger row. TotalSales and TotalProfit are snapshots computed
// from the catalog prices as they existed at the moment of the write.
type Sale struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	Quantity    int     `json:"quantity"`
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
	Date        string  `json:"date"`
}

// EnrichedSale is a Sale joined with its product's category and item name.
type EnrichedSale struct {
	Sale
	Category string `json:"category"`
	Item     string `json:"item"`
}

type SaleCreateRequest struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

type SaleUpdateRequest struct {
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

type SaleResponse struct {
	Sale Sale `json:"sale"`
}

// SalesQuery filters the ledger. Empty bounds mean unbounded; bounds are
// inclusive ISO dates (YYYY-MM-DD). GroupBy is empty, "date" or "category".
type SalesQuery struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	GroupBy string `json:"group_by,omitempty"`
}

// GroupTotal is one aggregation bucket of a grouped sales query.
type GroupTotal struct {
	Key         string  `json:"key"`
	Quantity    int     `json:"quantity"`
	TotalSales  float64 `json:"total_sales"`
	TotalProfit float64 `json:"total_profit"`
}

type SalesQueryResponse struct {
	Sales  []EnrichedSale `json:"sales"`
	Groups []GroupTotal   `json:"groups,omitempty"`
}

// RankedTotal is a keyed sum used by insight listings that carry an order
// (e.g. profit by product, descending).
type RankedTotal struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// Insights is the aggregate report over an enriched sale sequence.
type Insights struct {
	TotalSales         float64            `json:"total_sales"`
	TotalProfit        float64            `json:"total_profit"`
	SalesByCategory    map[string]float64 `json:"sales_by_category"`
	ProfitByProduct    []RankedTotal      `json:"profit_by_product"`
	SalesByDate        map[string]float64 `json:"sales_by_date"`
	QuantityByCategory map[string]int     `json:"quantity_by_category"`
	SkippedRows        int                `json:"skipped_rows"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	GroupByDate     = "date"
	GroupByCategory = "category"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// DateLayout is the wire and storage format for sale attribution dates.
// Lexical order equals chronological order, which the range queries rely on.
const DateLayout = "2006-01-02"
