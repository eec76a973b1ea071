package models

import (
	"math"
	"time"
)

// CartLine represents a single line in a customer's cart
type CartLine struct {
	ProductName string  `json:"product_name" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"gte=0"`
}

// LineTotal returns the extended price for the line
func (l CartLine) LineTotal() float64 {
	return RoundCents(float64(l.Quantity) * l.UnitPrice)
}

// StepStatus constants for pipeline step records
const (
	StepStatusPending = "pending"
	StepStatusSuccess = "success"
	StepStatusWarning = "warning"
	StepStatusError   = "error"
)

// StepRecord is one entry in the checkout audit trail
type StepRecord struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutRequest represents a request to process a checkout
type CheckoutRequest struct {
	Cart []CartLine     `json:"cart" binding:"required,dive"`
	Tier MembershipTier `json:"tier" binding:"required"`
}

// CheckoutResult is the aggregated outcome of one checkout attempt
type CheckoutResult struct {
	Subtotal           float64      `json:"subtotal"`
	DiscountAmount     float64      `json:"discount_amount"`
	DiscountReason     string       `json:"discount_reason,omitempty"`
	TotalAfterDiscount float64      `json:"total_after_discount"`
	Steps              []StepRecord `json:"steps"`
	Succeeded          bool         `json:"succeeded"`
	ErrorMessage       string       `json:"error_message,omitempty"`
}

// RoundCents rounds a dollar amount to cent precision
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
