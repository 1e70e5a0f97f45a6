package ebay

// ItemSummary is one row of a Browse item_summary search. Only the fields
// the card pipeline reads are decoded.
type ItemSummary struct {
	ItemID          string           `json:"itemId"`
	Title           string           `json:"title"`
	Price           *ItemPrice       `json:"price,omitempty"`
	CurrentBidPrice *ItemPrice       `json:"currentBidPrice,omitempty"`
	BidCount        int              `json:"bidCount,omitempty"`
	ItemEndDate     string           `json:"itemEndDate,omitempty"`
	ItemWebURL      string           `json:"itemWebUrl"`
	Image           *ItemImage       `json:"image,omitempty"`
	Condition       string           `json:"condition"`
	BuyingOptions   []string         `json:"buyingOptions"`
	ShippingOptions []ShippingOption `json:"shippingOptions,omitempty"`

	// ItemGroupType is set on parent rows of multi-variation listings. Those
	// rows carry no purchasable offer of their own.
	ItemGroupType string `json:"itemGroupType,omitempty"`
}

// offerPrice is the listed price, or the current bid for auctions that
// list none.
func (s *ItemSummary) offerPrice() *ItemPrice {
	if s.Price != nil && s.Price.Value != "" {
		return s.Price
	}
	if s.CurrentBidPrice != nil && s.CurrentBidPrice.Value != "" {
		return s.CurrentBidPrice
	}
	return nil
}

// ItemPrice is an amount as eBay sends it: a decimal string and an ISO
// currency code.
type ItemPrice struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ItemImage is the primary listing image.
type ItemImage struct {
	ImageURL string `json:"imageUrl"`
}

// ShippingOption carries the cheapest shipping cost eBay reports.
type ShippingOption struct {
	ShippingCost *ItemPrice `json:"shippingCost,omitempty"`
}
