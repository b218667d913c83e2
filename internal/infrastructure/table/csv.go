// Package table reads the input CSV tables and writes the item table.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/itembuilder/backend/internal/domain"
)

// Input column names
const (
	ColUPC      = "UPC"
	ColCategory = "Category"
	ColSubCat1  = "Sub-Cat 1"
	ColSubCat2  = "Sub-Cat 2"
	ColSubCat3  = "Sub-Cat 3"
	ColItemName = "Item Name"
	ColBrand    = "Brand"
	ColMSRP     = "MSRP"
	ColImage1   = "Image 1"
)

// csvTable is a parsed CSV file with header lookup
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

// readTable parses r and checks that every required column is present.
// Header names are trimmed and a UTF-8 byte order mark is ignored.
func readTable(r io.Reader, name string, required ...string) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s table is empty", domain.ErrInvalidTable, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := columns[h]; !dup {
			columns[h] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s table is missing column(s) %s", domain.ErrInvalidTable, name, strings.Join(missing, ", "))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", name, err)
	}

	return &csvTable{columns: columns, rows: rows}, nil
}

// value returns a trimmed cell, or "" when the column or cell is absent
func (t *csvTable) value(row []string, col string) string {
	idx, ok := t.columns[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ReadUPCs reads the UPC column, preserving order and repeats. Blank cells are skipped.
func ReadUPCs(r io.Reader) ([]string, error) {
	t, err := readTable(r, "UPC", ColUPC)
	if err != nil {
		return nil, err
	}

	upcs := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		if upc := t.value(row, ColUPC); upc != "" {
			upcs = append(upcs, upc)
		}
	}
	return upcs, nil
}

// ReadCategoryMapping reads the category mapping table in file order
func ReadCategoryMapping(r io.Reader) ([]domain.CategoryMappingEntry, error) {
	t, err := readTable(r, "category mapping", ColCategory, ColSubCat1)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CategoryMappingEntry, 0, len(t.rows))
	for _, row := range t.rows {
		entries = append(entries, domain.CategoryMappingEntry{
			Category: t.value(row, ColCategory),
			SubCat1:  t.value(row, ColSubCat1),
			SubCat2:  t.value(row, ColSubCat2),
			SubCat3:  t.value(row, ColSubCat3),
		})
	}
	return entries, nil
}

// ReadSupplierTable reads supplier records keyed by UPC. The first row for a UPC wins.
func ReadSupplierTable(r io.Reader) (domain.SupplierTable, error) {
	t, err := readTable(r, "supplier", ColUPC)
	if err != nil {
		return nil, err
	}

	records := make(domain.SupplierTable, len(t.rows))
	for _, row := range t.rows {
		upc := t.value(row, ColUPC)
		if upc == "" {
			continue
		}
		if _, seen := records[upc]; seen {
			continue
		}
		records[upc] = domain.SupplierRecord{
			UPC:      upc,
			ItemName: t.value(row, ColItemName),
			Brand:    t.value(row, ColBrand),
			Category: t.value(row, ColCategory),
			MSRP:     t.value(row, ColMSRP),
			Image1:   t.value(row, ColImage1),
		}
	}
	return records, nil
}

// WriteItems writes the header and one line per row
func WriteItems(w io.Writer, rows []domain.OutputRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(domain.OutputColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row.Values()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
