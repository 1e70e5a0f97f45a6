package ebay

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/donaldgifford/card-price-tracker/pkg/query"
	"github.com/donaldgifford/card-price-tracker/pkg/taxonomy"
	domain "github.com/donaldgifford/card-price-tracker/pkg/types"
)

// lotPattern matches multi-card lot and "pick your card" listings.
var lotPattern = regexp.MustCompile(
	`(?i)\b(?:lots?|bundle|pick one|pick your|you pick|u pick|choose|complete set|team set)\b|\b(?:x\s?\d{1,3}|\d{1,3}\s?x)\b`,
)

// ToCandidates converts eBay item summaries into candidates for q. Rows
// without an offer, lots, wrong players, wrong lines and wrong parallels are
// dropped.
func ToCandidates(items []ItemSummary, q domain.StructuredQuery) []domain.ListingCandidate {
	cands := make([]domain.ListingCandidate, 0, len(items))
	for i := range items {
		if isPlaceholder(&items[i]) {
			continue
		}
		c, ok := toCandidate(&items[i])
		if !ok {
			continue
		}
		cands = append(cands, c)
	}
	return FilterCandidates(cands, q)
}

// FilterCandidates applies the ingestion filters shared by every source.
func FilterCandidates(cands []domain.ListingCandidate, q domain.StructuredQuery) []domain.ListingCandidate {
	out := cands[:0:0]
	for i := range cands {
		title := cands[i].Title
		if IsLot(title) {
			continue
		}
		if !query.MatchPlayer(title, q.Player) {
			continue
		}
		if !taxonomy.LineMatches(q.Line, title) {
			continue
		}
		if !taxonomy.MatchParallel(title, q.Parallel) {
			continue
		}
		out = append(out, cands[i])
	}
	return out
}

// IsLot reports whether a title describes more than one card.
func IsLot(title string) bool {
	return lotPattern.MatchString(title)
}

func isPlaceholder(item *ItemSummary) bool {
	return item.ItemGroupType != "" ||
		strings.TrimSpace(item.Title) == "" ||
		item.offerPrice() == nil
}

func toCandidate(item *ItemSummary) (domain.ListingCandidate, bool) {
	offer := item.offerPrice()
	price, err := strconv.ParseFloat(offer.Value, 64)
	if err != nil || price <= 0 {
		return domain.ListingCandidate{}, false
	}

	c := domain.ListingCandidate{
		ID:          item.ItemID,
		Title:       item.Title,
		Price:       price,
		Currency:    offer.Currency,
		Condition:   item.Condition,
		URL:         item.ItemWebURL,
		ListingType: parseListingType(item.BuyingOptions),
		Source:      domain.SourceAPI,
		Attributes:  query.Attributes(item.Title),
	}

	if item.Image != nil && item.Image.ImageURL != "" {
		c.ImageURL = item.Image.ImageURL
	}

	if len(item.ShippingOptions) > 0 {
		if sc := item.ShippingOptions[0].ShippingCost; sc != nil {
			if cost, err := strconv.ParseFloat(sc.Value, 64); err == nil {
				c.ShippingCost = &cost
			}
		}
	}

	return c, true
}

func parseListingType(buyingOptions []string) domain.ListingType {
	if slices.Contains(buyingOptions, "AUCTION") {
		return domain.ListingAuction
	}
	if slices.Contains(buyingOptions, "BEST_OFFER") {
		return domain.ListingBestOffer
	}
	return domain.ListingBuyItNow
}
