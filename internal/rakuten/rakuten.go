// Package rakuten builds item page URLs and pulls the representative
// product image out of fetched item pages.
package rakuten

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultShop is the merchant storefront the tool was built around.
const DefaultShop = "hype"

// ItemURL returns the item page for a 7-digit item code on the given
// storefront.
func ItemURL(shop, code string) string {
	return fmt.Sprintf("https://item.rakuten.co.jp/%s/%s/", shop, code)
}

// ExtractImage pulls the product image URL out of an item page: the
// first <img> nested under the first <span class="sale_desc">
// container, resolved against baseURL so relative sources survive
// redirects. Missing container, missing img, empty src and a broken
// base URL all report ("", false) alike.
func ExtractImage(body []byte, baseURL string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	container := doc.Find("span.sale_desc").First()
	if container.Length() == 0 {
		return "", false
	}
	img := container.Find("img").First()
	if img.Length() == 0 {
		return "", false
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		return "", false
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
