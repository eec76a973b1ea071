// Package discount implements the membership-discount agent. The tier
// rate table below is the source of truth for pricing; the
// text-generation backend may only contribute the customer-facing
// justification, never the percentage.
package discount

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/smartshop/checkout/internal/agent"
	"github.com/smartshop/checkout/internal/llm"
	"github.com/smartshop/checkout/internal/models"
)

// Discount rates by membership tier
const (
	rateGold   = 0.20
	rateSilver = 0.10
	rateNormal = 0.0
)

const systemPrompt = "You are a pricing assistant for an e-commerce checkout. " +
	"Discount policy: gold members get 20%, silver members get 10%, normal members get 0%. " +
	"Reply with a line 'PERCENT: <number>' followed by a one-sentence justification for the customer."

// Agent computes membership-based discounts
type Agent struct {
	llm llm.Client
}

// NewAgent creates a discount agent
func NewAgent(client llm.Client) *Agent {
	if client == nil {
		client = llm.Disabled()
	}
	return &Agent{llm: client}
}

// ComputeDiscount decides the discount for one checkout. It never
// returns a Go error: any backend failure, unparseable response, or
// policy disagreement resolves to the deterministic table.
func (a *Agent) ComputeDiscount(ctx context.Context, req models.DiscountRequest) (models.DiscountResult, agent.Outcome) {
	subtotal := models.RoundCents(math.Max(req.Subtotal, 0))
	rate := rateFor(req.Tier)
	amount := models.RoundCents(subtotal * rate)

	response, err := a.llm.Generate(ctx, a.buildPrompt(req.Tier, req.Items, subtotal))
	if err != nil {
		// Disabled by configuration is the normal deterministic path,
		// not a degradation.
		if errors.Is(err, llm.ErrDisabled) {
			return a.finish(subtotal, amount, fallbackReason(req.Tier)), agent.OK()
		}
		return a.finish(subtotal, amount, fallbackReason(req.Tier)),
			agent.Fallback(fmt.Sprintf("text generation unavailable: %v", err))
	}

	percent, justification, parseErr := parseResponse(response)
	if parseErr != nil {
		log.WithFields(log.Fields{
			"agent": "discount",
			"tier":  req.Tier,
			"error": parseErr.Error(),
		}).Warn("Unparseable discount response, using deterministic table")
		return a.finish(subtotal, amount, fallbackReason(req.Tier)),
			agent.Fallback(fmt.Sprintf("unusable backend response: %v", parseErr))
	}

	// The deterministic table always wins on disagreement; the backend
	// proposal is only recorded, never applied.
	if math.Abs(percent-rate*100) > 0.01 {
		log.WithFields(log.Fields{
			"agent":    "discount",
			"tier":     req.Tier,
			"proposed": percent,
			"applied":  rate * 100,
		}).Warn("Discount discrepancy, deterministic rate applied")
		return a.finish(subtotal, amount, fallbackReason(req.Tier)),
			agent.Fallback(fmt.Sprintf("backend proposed %.1f%% but policy requires %.0f%%; deterministic rate applied", percent, rate*100))
	}

	reason := justification
	if reason == "" {
		reason = fallbackReason(req.Tier)
	}
	return a.finish(subtotal, amount, reason), agent.OK()
}

// finish clamps the amount into [0, subtotal] and derives the total
func (a *Agent) finish(subtotal, amount float64, reason string) models.DiscountResult {
	amount = math.Min(math.Max(amount, 0), subtotal)
	return models.DiscountResult{
		DiscountAmount:     amount,
		Reason:             reason,
		TotalAfterDiscount: models.RoundCents(subtotal - amount),
		Succeeded:          true,
	}
}

func (a *Agent) buildPrompt(tier models.MembershipTier, items []models.CartLine, subtotal float64) []llm.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Membership tier: %s\nSubtotal: $%.2f\n", tier, subtotal)
	if len(items) > 0 {
		b.WriteString("Items:\n")
		for _, line := range items {
			fmt.Fprintf(&b, "- %s x%d at $%.2f\n", line.ProductName, line.Quantity, line.UnitPrice)
		}
	}
	b.WriteString("What discount percentage applies?")

	return []llm.Message{
		{Role: llm.RoleSystem, Text: systemPrompt},
		{Role: llm.RoleUser, Text: b.String()},
	}
}

func rateFor(tier models.MembershipTier) float64 {
	switch tier {
	case models.TierGold:
		return rateGold
	case models.TierSilver:
		return rateSilver
	default:
		return rateNormal
	}
}

func fallbackReason(tier models.MembershipTier) string {
	switch tier {
	case models.TierGold:
		return "Gold member: 20% discount applied"
	case models.TierSilver:
		return "Silver member: 10% discount applied"
	default:
		return "No membership discount applies"
	}
}
