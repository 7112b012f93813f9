package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"storefront-auth/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads a catalog CSV and inserts or updates products by name.
//
// Recognised columns: name, description, categoryId, and either
// listPriceInCents or price (decimal, e.g. 7.95). Other columns are ignored.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{reader: csvr, productRepo: repo, logger: logger}
}

// ErrMissingColumn is returned when the header lacks name or a price column.
var ErrMissingColumn = errors.New("missing required column")

// Run upserts every data row and returns the number of products written.
// Rows without a name are skipped; a bad price aborts the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, fmt.Errorf("%w: name", ErrMissingColumn)
	}
	_, hasCents := index["listpriceincents"]
	_, hasPrice := index["price"]
	if !hasCents && !hasPrice {
		return 0, fmt.Errorf("%w: listPriceInCents or price", ErrMissingColumn)
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if p == nil {
			continue
		}
		if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
			return imported, fmt.Errorf("upsert %q: %w", p.Name, err)
		}
		imported++
	}
	i.logger.Info("catalog imported", zap.Int("products", imported))
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for n, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[key] = n
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	get := func(col string) string {
		n, ok := index[col]
		if !ok || n >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[n])
	}

	name := get("name")
	if name == "" {
		return nil, nil
	}
	p := &domain.Product{Name: name, Description: get("description")}

	if v := get("categoryid"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: categoryId %q", domain.ErrInvalidInput, v)
		}
		p.CategoryID = id
	}

	cents, err := parsePrice(get("listpriceincents"), get("price"))
	if err != nil {
		return nil, err
	}
	p.ListPriceInCents = cents
	return p, nil
}

func parsePrice(cents, decimal string) (int64, error) {
	if cents != "" {
		v, err := strconv.ParseInt(cents, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: listPriceInCents %q", domain.ErrInvalidInput, cents)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(decimal, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: price %q", domain.ErrInvalidInput, decimal)
	}
	return int64(math.Round(v * 100)), nil
}
