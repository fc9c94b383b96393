// Package roster loads the customer base used to join extracted invoices to
// customer names and ids. The roster is a headered CSV with columns for the
// account identifier, the customer name and the customer id; identifiers are
// normalized so spreadsheet float artifacts ("12345.0") and formatting
// characters never break the join.
package roster

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"

	"rateio/internal/logger"
)

// Entry is one roster row keyed by normalized account identifier.
type Entry struct {
	Name       string
	CustomerID string
}

// Roster maps normalized account identifiers to customer data.
type Roster map[string]Entry

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeID strips a trailing ".0" float artifact and every non-digit
// character from an account identifier.
func NormalizeID(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSuffix(cleaned, ".0")
	return nonDigits.ReplaceAllString(cleaned, "")
}

// Lookup returns the roster entry for an extracted identifier.
func (r Roster) Lookup(uc string) (Entry, bool) {
	entry, ok := r[NormalizeID(uc)]
	return entry, ok
}

// LoadCSV reads a roster file. The first row is a header; columns are
// located by name (account identifier: "uc", "conta contrato" or "conta";
// name: "nome" or "name"; id: "id"), falling back to the first three
// columns when no header name matches. Rows without an identifier are
// skipped with a warning, never an error.
func LoadCSV(path string) (Roster, error) {
	const op = "LoadCSV"
	log := logger.WithComponent("roster")

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open roster: %w", op, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read roster: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: roster file is empty", op)
	}

	ucCol, nameCol, idCol := locateColumns(rows[0])

	roster := make(Roster, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2

		uc := NormalizeID(getColumn(row, ucCol))
		if uc == "" {
			log.Warn().
				Int("row", rowNum).
				Msg("Skipping roster row without an account identifier")
			continue
		}

		roster[uc] = Entry{
			Name:       strings.TrimSpace(getColumn(row, nameCol)),
			CustomerID: strings.TrimSpace(getColumn(row, idCol)),
		}
	}

	log.Info().
		Str("file", path).
		Int("entries", len(roster)).
		Msg("Customer roster loaded")

	return roster, nil
}

// locateColumns resolves column positions from header names.
func locateColumns(header []string) (ucCol, nameCol, idCol int) {
	ucCol, nameCol, idCol = 0, 1, 2
	for i, name := range header {
		switch normalizeHeader(name) {
		case "uc", "conta contrato", "conta":
			ucCol = i
		case "nome", "name", "cliente":
			nameCol = i
		case "id", "id cliente":
			idCol = i
		}
	}
	return ucCol, nameCol, idCol
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func getColumn(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
