// Package report ingests a vendor restock report, ranks its rows by
// the recommended restock quantity and augments the top of the ranking
// with product image URLs resolved through the image cache.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"amazon-suisyou/internal/imagecache"
	"amazon-suisyou/internal/sku"
	"amazon-suisyou/lib/textutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/encoding/japanese"
)

var tracer = otel.Tracer("report")

// Row is one inventory line. Fields holds the original cells aligned
// with Report.Columns and passes through untouched; everything else is
// derived from them once at read time.
type Row struct {
	Identifier string
	SKU        string
	Quantity   int
	LookupKey  string
	RakutenURL string
	ImageURL   string
	Fields     []string
}

type Report struct {
	Columns []string
	Rows    []*Row
}

// ImageResolver is the slice of the cache the report needs. See
// imagecache.Resolver.
type ImageResolver interface {
	ItemURL(key string) string
	Resolve(ctx context.Context, key string) imagecache.Resolution
}

type headerSpec struct {
	// canonical is the name reported to the user when the column is
	// missing.
	canonical string
	aliases   []string
}

var (
	identifierColumn = headerSpec{
		canonical: "ASIN",
		aliases:   []string{"ASIN"},
	}
	quantityColumn = headerSpec{
		canonical: "推奨される在庫補充数量",
		aliases: []string{
			"推奨される在庫補充数量",
			"Recommended Replenishment Qty",
			"Recommended Replenishment Quantity",
		},
	}
	skuColumn = headerSpec{
		canonical: "Merchant SKU",
		aliases:   []string{"Merchant SKU", "MSKU", "出品者SKU"},
	}
)

// headerSimilarityFloor rejects fuzzy header matches worse than this,
// so an unrelated column never gets claimed by a typo'd alias.
const headerSimilarityFloor = 0.93

func findColumn(headers []string, spec headerSpec) int {
	for i, header := range headers {
		for _, alias := range spec.aliases {
			if header == alias {
				return i
			}
		}
	}

	aliases := make([]string, len(spec.aliases))
	for i, alias := range spec.aliases {
		aliases[i] = textutil.NormalizeName(alias)
	}
	// flat file exports decorate headers ("asin1", "Merchant SKU
	// (MSKU)"), so containment of the normalized alias counts too
	for i, header := range headers {
		if textutil.MatchName(header, aliases) {
			return i
		}
	}

	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = textutil.NormalizeName(header)
	}

	mostSimilar := -1
	var similarity float64
	for i, header := range normalized {
		for _, alias := range aliases {
			sim := matchr.JaroWinkler(header, alias, false)
			if sim > similarity {
				similarity = sim
				mostSimilar = i
			}
		}
	}
	if similarity >= headerSimilarityFloor {
		return mostSimilar
	}
	return -1
}

var utf8Bom = []byte{0xef, 0xbb, 0xbf}

// decodeText sniffs the report encoding. Excel on Japanese Windows
// exports CP932; everything else hands us UTF-8, sometimes with a BOM.
func decodeText(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return bytes.TrimPrefix(raw, utf8Bom), nil
	}
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode report as shift_jis: %w", err)
	}
	return decoded, nil
}

// parseQuantity coerces the quantity cell the way the upstream report
// tooling does: thousands separators dropped, fractions truncated,
// anything unparsable counts as zero.
func parseQuantity(raw string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return int(value)
}

// Read parses a restock report. The identifier and quantity columns
// must be present under one of their known spellings; the merchant SKU
// column is optional, but without it no row gets a lookup key and the
// ranking cannot be augmented with images.
func Read(r io.Reader) (*Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	records, err := csv.NewReader(bytes.NewReader(text)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse report csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report has no header row")
	}

	headers := records[0]
	identifierIdx := findColumn(headers, identifierColumn)
	if identifierIdx < 0 {
		return nil, fmt.Errorf("report is missing required column %q", identifierColumn.canonical)
	}
	quantityIdx := findColumn(headers, quantityColumn)
	if quantityIdx < 0 {
		return nil, fmt.Errorf("report is missing required column %q", quantityColumn.canonical)
	}
	skuIdx := findColumn(headers, skuColumn)

	rows := make([]*Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := &Row{
			Identifier: strings.TrimSpace(record[identifierIdx]),
			Quantity:   parseQuantity(record[quantityIdx]),
			Fields:     record,
		}
		if skuIdx >= 0 {
			row.SKU = strings.TrimSpace(record[skuIdx])
		}
		if key, ok := sku.Derive(row.SKU); ok {
			row.LookupKey = key
		}
		rows = append(rows, row)
	}

	return &Report{
		Columns: headers,
		Rows:    rows,
	}, nil
}

// Rank orders rows by quantity, most urgent first. The sort is stable
// so rows with equal quantities keep their report order.
func (r *Report) Rank() {
	sort.SliceStable(r.Rows, func(i, j int) bool {
		return r.Rows[i].Quantity > r.Rows[j].Quantity
	})
}

// Augment fills in the storefront URL for every row with a lookup key
// and resolves image URLs for the first topN rows. topN <= 0 resolves
// every row. Call Rank first if the top of the ranking should be the
// part that gets images.
func (r *Report) Augment(ctx context.Context, resolver ImageResolver, topN int) {
	ctx, span := tracer.Start(ctx, "Augment")
	defer span.End()

	if topN <= 0 || topN > len(r.Rows) {
		topN = len(r.Rows)
	}
	span.SetAttributes(
		attribute.Int("rows", len(r.Rows)),
		attribute.Int("resolve_top", topN),
	)

	for _, row := range r.Rows {
		if row.LookupKey == "" {
			continue
		}
		row.RakutenURL = resolver.ItemURL(row.LookupKey)
	}
	for _, row := range r.Rows[:topN] {
		if row.LookupKey == "" {
			continue
		}
		row.ImageURL = resolver.Resolve(ctx, row.LookupKey).ImageURL
	}
}
