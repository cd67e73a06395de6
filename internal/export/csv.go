// Package export renders read-only tabular projections of the ledger and
// the catalog. Rows are written after all filtering and never aggregated.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"wiggies/backend/internal/domain"
)

var salesHeader = []string{"item", "date", "quantity", "total_sales", "total_profit"}

func WriteSalesCSV(w io.Writer, sales []domain.EnrichedSale) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(salesHeader); err != nil {
		return err
	}
	for _, row := range sales {
		record := []string{
			row.Item,
			row.Date,
			strconv.Itoa(row.Quantity),
			formatAmount(row.TotalSales),
			formatAmount(row.TotalProfit),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var productsHeader = []string{"id", "category", "item", "srp", "dealer_price"}

func WriteProductsCSV(w io.Writer, products []domain.Product) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(productsHeader); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{
			p.ID,
			p.Category,
			p.Item,
			formatAmount(p.SRP),
			formatAmount(p.DealerPrice),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
