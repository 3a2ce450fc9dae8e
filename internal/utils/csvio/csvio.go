// Package csvio reads and writes transactions as CSV for bulk import/export.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avelin/cashflow-service/internal/models"
	"github.com/avelin/cashflow-service/internal/money"
)

const dateLayout = "2006-01-02"

var header = []string{"date", "description", "amount", "category"}

// Export writes one-time transactions as CSV rows with a header line.
// Recurring templates are skipped: their expansion is derived data.
func Export(w io.Writer, transactions []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, tx := range transactions {
		if tx.IsRecurring {
			continue
		}
		record := []string{
			tx.Date.Format(dateLayout),
			tx.Description,
			tx.Amount.StringFixed(2),
			tx.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import parses CSV rows into one-time transactions for the given account.
// The first row is skipped when it looks like a header. Malformed rows fail
// the whole import with a row-numbered error so nothing partial is saved.
func Import(r io.Reader, accountID string) ([]models.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var transactions []models.Transaction
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		row++
		if row == 1 && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: expected at least 3 fields, got %d", row, len(record))
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", row, record[0])
		}
		amount, err := money.Parse(record[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q", row, record[2])
		}
		category := ""
		if len(record) > 3 {
			category = strings.TrimSpace(record[3])
		}

		transactions = append(transactions, models.Transaction{
			AccountID:   accountID,
			Date:        date,
			Description: strings.TrimSpace(record[1]),
			Amount:      amount,
			Category:    category,
		})
	}
	return transactions, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date")
}
