package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"amazon-suisyou/internal/imagecache"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

const fixture = `ASIN,Merchant SKU,推奨される在庫補充数量,Price
B00EXAMPLE1,ama-798_7560X11Y14,12,1980
B00EXAMPLE2,ama-777_1234X9,3,2980
B00EXAMPLE3,no-digits-here,45,980
`

func TestReadUTF8WithBOM(t *testing.T) {
	report, err := Read(strings.NewReader("\uFEFF" + fixture))
	require.NoError(t, err)

	require.Equal(t, []string{"ASIN", "Merchant SKU", "推奨される在庫補充数量", "Price"}, report.Columns)
	require.Len(t, report.Rows, 3)

	first := report.Rows[0]
	require.Equal(t, "B00EXAMPLE1", first.Identifier)
	require.Equal(t, "ama-798_7560X11Y14", first.SKU)
	require.Equal(t, 12, first.Quantity)
	require.Equal(t, "7987560", first.LookupKey)

	require.Equal(t, "7771234", report.Rows[1].LookupKey)
	require.Equal(t, "", report.Rows[2].LookupKey)
}

func TestReadShiftJIS(t *testing.T) {
	raw, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(fixture))
	require.NoError(t, err)

	report, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)

	require.Len(t, report.Rows, 3)
	require.Equal(t, 12, report.Rows[0].Quantity)
	require.Equal(t, 3, report.Rows[1].Quantity)
	require.Equal(t, 45, report.Rows[2].Quantity)
}

func TestReadMissingColumns(t *testing.T) {
	_, err := Read(strings.NewReader("ASIN,Price\nB00EXAMPLE1,1980\n"))
	require.ErrorContains(t, err, "推奨される在庫補充数量")

	_, err = Read(strings.NewReader("Merchant SKU,推奨される在庫補充数量\nama-798_7560X11Y14,12\n"))
	require.ErrorContains(t, err, "ASIN")
}

func TestFindColumn(t *testing.T) {
	cases := []struct {
		name     string
		headers  []string
		spec     headerSpec
		expected int
	}{
		{
			name:     "exact",
			headers:  []string{"Merchant SKU", "ASIN"},
			spec:     identifierColumn,
			expected: 1,
		},
		{
			name:     "full width",
			headers:  []string{"ＡＳＩＮ"},
			spec:     identifierColumn,
			expected: 0,
		},
		{
			name:     "trailing punctuation",
			headers:  []string{"ASIN", "Recommended Replenishment Qty."},
			spec:     quantityColumn,
			expected: 1,
		},
		{
			name:     "numbered flat file header",
			headers:  []string{"Price", "asin1"},
			spec:     identifierColumn,
			expected: 1,
		},
		{
			name:     "typo caught by similarity",
			headers:  []string{"Recomended Replenishment Qty"},
			spec:     quantityColumn,
			expected: 0,
		},
		{
			name:     "japanese sku alias",
			headers:  []string{"出品者SKU"},
			spec:     skuColumn,
			expected: 0,
		},
		{
			name:     "fnsku must not pass for sku",
			headers:  []string{"Price", "FNSKU"},
			spec:     skuColumn,
			expected: -1,
		},
		{
			name:     "no headers",
			headers:  nil,
			spec:     quantityColumn,
			expected: -1,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, findColumn(c.headers, c.spec))
		})
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		raw      string
		expected int
	}{
		{raw: "12", expected: 12},
		{raw: " 1,234 ", expected: 1234},
		{raw: "12.9", expected: 12},
		{raw: "-3", expected: -3},
		{raw: "", expected: 0},
		{raw: "   ", expected: 0},
		{raw: "abc", expected: 0},
		{raw: "12個", expected: 0},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, parseQuantity(c.raw), "raw: %q", c.raw)
	}
}

func TestRankIsStable(t *testing.T) {
	report := &Report{Rows: []*Row{
		{Identifier: "a", Quantity: 3},
		{Identifier: "b", Quantity: 12},
		{Identifier: "c", Quantity: 12},
		{Identifier: "d", Quantity: 1},
	}}
	report.Rank()

	order := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		order = append(order, row.Identifier)
	}
	require.Equal(t, []string{"b", "c", "a", "d"}, order)
}

type fakeResolver struct {
	resolved []string
}

func (f *fakeResolver) ItemURL(key string) string {
	return "https://item.rakuten.co.jp/hype/" + key + "/"
}

func (f *fakeResolver) Resolve(ctx context.Context, key string) imagecache.Resolution {
	f.resolved = append(f.resolved, key)
	return imagecache.Resolution{ImageURL: "https://image.example.com/" + key + ".jpg"}
}

func TestAugmentTopN(t *testing.T) {
	report, err := Read(strings.NewReader(fixture))
	require.NoError(t, err)
	report.Rank()

	// ranked order: B00EXAMPLE3 (45, no key), B00EXAMPLE1 (12), B00EXAMPLE2 (3)
	resolver := &fakeResolver{}
	report.Augment(context.Background(), resolver, 2)

	require.Equal(t, []string{"7987560"}, resolver.resolved)

	require.Equal(t, "", report.Rows[0].RakutenURL)
	require.Equal(t, "https://item.rakuten.co.jp/hype/7987560/", report.Rows[1].RakutenURL)
	require.Equal(t, "https://item.rakuten.co.jp/hype/7771234/", report.Rows[2].RakutenURL)

	require.Equal(t, "https://image.example.com/7987560.jpg", report.Rows[1].ImageURL)
	require.Equal(t, "", report.Rows[2].ImageURL)
}

func TestAugmentAllRows(t *testing.T) {
	report, err := Read(strings.NewReader(fixture))
	require.NoError(t, err)
	report.Rank()

	resolver := &fakeResolver{}
	report.Augment(context.Background(), resolver, 0)

	require.Equal(t, []string{"7987560", "7771234"}, resolver.resolved)
}

func TestWriteCSV(t *testing.T) {
	report := &Report{
		Columns: []string{"ASIN", "Merchant SKU", "推奨される在庫補充数量"},
		Rows: []*Row{{
			Fields:     []string{"B00EXAMPLE1", "ama-798_7560X11Y14", "12"},
			RakutenURL: "https://item.rakuten.co.jp/hype/7987560/",
			ImageURL:   "https://image.example.com/7987560.jpg",
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, report.WriteCSV(&buf))

	expected := "ASIN,Merchant SKU,推奨される在庫補充数量,rakuten_url,image_url\n" +
		"B00EXAMPLE1,ama-798_7560X11Y14,12,https://item.rakuten.co.jp/hype/7987560/,https://image.example.com/7987560.jpg\n"
	require.Equal(t, expected, buf.String())
}

func TestRenderTable(t *testing.T) {
	report := &Report{Rows: []*Row{
		{Identifier: "B00EXAMPLE1", SKU: "ama-798_7560X11Y14", Quantity: 12, ImageURL: "https://image.example.com/7987560.jpg"},
		{Identifier: "B00EXAMPLE2", SKU: "ama-777_1234X9", Quantity: 3},
		{Identifier: "B00EXAMPLE3", SKU: "beyond-the-limit", Quantity: 1},
	}}

	var buf bytes.Buffer
	report.RenderTable(&buf, 2)
	out := buf.String()

	require.Contains(t, out, "ama-798_7560X11Y14")
	require.Contains(t, out, "https://image.example.com/7987560.jpg")
	require.Contains(t, out, noImagePlaceholder)
	require.NotContains(t, out, "beyond-the-limit")
}

func TestComposeMail(t *testing.T) {
	report := &Report{
		Columns: []string{"ASIN"},
		Rows:    []*Row{{Fields: []string{"B00EXAMPLE1"}}},
	}

	cfg := EmailConfig{
		EmailAddress: "reports@example.com",
		To:           []string{"ops@example.com"},
	}
	mail, err := report.composeMail(cfg, "在庫補充レポート", "restock.csv")
	require.NoError(t, err)

	require.Equal(t, "Suisyou <reports@example.com>", mail.From)
	require.Equal(t, []string{"ops@example.com"}, mail.To)
	require.Equal(t, "在庫補充レポート", mail.Subject)
	require.Len(t, mail.Attachments, 1)
	require.Equal(t, "restock.csv", mail.Attachments[0].Filename)
	require.True(t, bytes.Contains(mail.Attachments[0].Content, []byte("rakuten_url")))
}
