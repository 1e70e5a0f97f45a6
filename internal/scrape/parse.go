package scrape

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/donaldgifford/card-price-tracker/pkg/query"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

var (
	priceRe  = regexp.MustCompile(`([A-Z]{0,3})\s*\$\s*([\d,]+(?:\.\d{1,2})?)`)
	itemIDRe = regexp.MustCompile(`/itm/(?:[^/?]+/)?(\d{6,})`)

	// challengeMarkers identify CAPTCHA and bot-check interstitials.
	challengeMarkers = [][]byte{
		[]byte("pardon our interruption"),
		[]byte("security measure"),
		[]byte("captcha"),
		[]byte("/splashui/challenge"),
		[]byte("challenge-form"),
		[]byte("verify you are a human"),
	}
)

// placeholderTitle is the hidden template row eBay renders first.
const placeholderTitle = "shop on ebay"

// IsChallenge reports whether a page body is a bot challenge.
func IsChallenge(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, m := range challengeMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Parse extracts candidates from a search results page. Result rows are
// "li" elements carrying the s-item class. Rows without a title, a single
// price or a link are skipped.
func Parse(r io.Reader) ([]domain.ListingCandidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing search page: %w", err)
	}

	var cands []domain.ListingCandidate
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li && hasClass(n, "s-item") {
			if c, ok := parseItem(n); ok {
				cands = append(cands, c)
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(doc)
	return cands, nil
}

func parseItem(n *html.Node) (domain.ListingCandidate, bool) {
	titleNode := find(n, func(x *html.Node) bool { return hasClass(x, "s-item__title") })
	priceNode := find(n, func(x *html.Node) bool { return hasClass(x, "s-item__price") })
	linkNode := find(n, func(x *html.Node) bool {
		return x.DataAtom == atom.A && hasClass(x, "s-item__link")
	})
	if titleNode == nil || priceNode == nil || linkNode == nil {
		return domain.ListingCandidate{}, false
	}

	title := cleanTitle(text(titleNode))
	if title == "" || strings.EqualFold(title, placeholderTitle) {
		return domain.ListingCandidate{}, false
	}

	priceText := text(priceNode)
	// Variation listings show a range ("$5.00 to $20.00").
	if strings.Contains(strings.ToLower(priceText), " to ") {
		return domain.ListingCandidate{}, false
	}
	price, currency, ok := parsePrice(priceText)
	if !ok || price <= 0 {
		return domain.ListingCandidate{}, false
	}

	href := attr(linkNode, "href")
	c := domain.ListingCandidate{
		ID:          itemID(href),
		Title:       title,
		Price:       price,
		Currency:    currency,
		URL:         href,
		ListingType: domain.ListingBuyItNow,
		Source:      domain.SourceScrape,
		Attributes:  query.Attributes(title),
	}

	if img := find(n, func(x *html.Node) bool { return x.DataAtom == atom.Img }); img != nil {
		c.ImageURL = attr(img, "src")
	}
	if cond := find(n, func(x *html.Node) bool { return hasClass(x, "SECONDARY_INFO") }); cond != nil {
		c.Condition = text(cond)
	}
	if ship := find(n, func(x *html.Node) bool {
		return hasClass(x, "s-item__shipping") || hasClass(x, "s-item__logisticsCost")
	}); ship != nil {
		c.ShippingCost = parseShipping(text(ship))
	}
	if find(n, func(x *html.Node) bool { return hasClass(x, "s-item__bids") }) != nil {
		c.ListingType = domain.ListingAuction
	}

	return c, true
}

// parsePrice reads "$12.34" or "C $1,234.00". A bare "$" is USD.
func parsePrice(s string) (float64, string, bool) {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return 0, "", false
	}
	currency := "USD"
	switch m[1] {
	case "C":
		currency = "CAD"
	case "AU":
		currency = "AUD"
	}
	return v, currency, true
}

func parseShipping(s string) *float64 {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "free") {
		zero := 0.0
		return &zero
	}
	v, _, ok := parsePrice(s)
	if !ok {
		return nil
	}
	return &v
}

func itemID(href string) string {
	if m := itemIDRe.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return href
}

// cleanTitle drops the "New Listing" badge eBay prefixes to fresh titles.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "New Listing")
	return strings.TrimSpace(s)
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// find returns the first descendant of n (excluding n) matching pred.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && pred(ch) {
			return ch
		}
		if got := find(ch, pred); got != nil {
			return got
		}
	}
	return nil
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
			b.WriteByte(' ')
		}
		for ch := x.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
