package models

// MembershipTier classifies a customer for discount purposes
type MembershipTier string

// MembershipTier constants
const (
	TierNormal MembershipTier = "normal"
	TierSilver MembershipTier = "silver"
	TierGold   MembershipTier = "gold"
)

// Valid reports whether the tier is one of the known values
func (t MembershipTier) Valid() bool {
	switch t {
	case TierNormal, TierSilver, TierGold:
		return true
	}
	return false
}

// DiscountRequest represents a request to compute a membership discount
type DiscountRequest struct {
	Tier     MembershipTier `json:"tier" binding:"required"`
	Items    []CartLine     `json:"items"`
	Subtotal float64        `json:"subtotal" binding:"gte=0"`
}

// DiscountResult is the discount agent's decision for one checkout
type DiscountResult struct {
	DiscountAmount     float64 `json:"discount_amount"`
	Reason             string  `json:"reason"`
	TotalAfterDiscount float64 `json:"total_after_discount"`
	Succeeded          bool    `json:"succeeded"`
}
