package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"wiggies/backend/internal/domain"
)

func TestWriteSalesCSV(t *testing.T) {
	sales := []domain.EnrichedSale{
		{
			Sale: domain.Sale{
				Quantity:    5,
				TotalSales:  50,
				TotalProfit: 5,
				Date:        "2024-01-10",
			},
			Category: "Novelty",
			Item:     "Icy Pop",
		},
	}

	var buf bytes.Buffer
	if err := WriteSalesCSV(&buf, sales); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}

	header := records[0]
	want := []string{"item", "date", "quantity", "total_sales", "total_profit"}
	for i, col := range want {
		if header[i] != col {
			t.Fatalf("expected header %v, got %v", want, header)
		}
	}

	row := records[1]
	if row[0] != "Icy Pop" || row[1] != "2024-01-10" || row[2] != "5" || row[3] != "50.00" || row[4] != "5.00" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestWriteSalesCSVEmptyLedgerStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSalesCSV(&buf, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d records", len(records))
	}
}

func TestWriteProductsCSV(t *testing.T) {
	products := []domain.Product{
		{ID: "prod-1", Category: "Novelty", Item: "Icy Pop", SRP: 10, DealerPrice: 9},
	}

	var buf bytes.Buffer
	if err := WriteProductsCSV(&buf, products); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	row := records[1]
	if row[3] != "10.00" || row[4] != "9.00" {
		t.Fatalf("unexpected price formatting: %v", row)
	}
}
