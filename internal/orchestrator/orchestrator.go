// Package orchestrator drives the stock and discount agents to completion
// for one checkout request and aggregates their outputs into a single
// result with a complete step log. Agent failures never fail the
// checkout; only request validation can.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/smartshop/checkout/internal/agent"
	"github.com/smartshop/checkout/internal/metrics"
	"github.com/smartshop/checkout/internal/models"
	"github.com/smartshop/checkout/internal/steplog"
	"github.com/smartshop/checkout/internal/stock"
)

// Step names recorded in the checkout audit trail
const (
	StepOrchestrator  = "Orchestrator"
	StepStockAgent    = "StockAgent"
	StepDiscountAgent = "DiscountAgent"
)

// StockAgent decides cart fulfillability
type StockAgent interface {
	CheckStock(ctx context.Context, req models.StockCheckRequest) (models.StockCheckResult, agent.Outcome)
}

// DiscountAgent computes a membership discount
type DiscountAgent interface {
	ComputeDiscount(ctx context.Context, req models.DiscountRequest) (models.DiscountResult, agent.Outcome)
}

// Orchestrator coordinates one checkout attempt end to end
type Orchestrator struct {
	stock    StockAgent
	discount DiscountAgent
}

// New creates an orchestrator over the two agents
func New(stockAgent StockAgent, discountAgent DiscountAgent) *Orchestrator {
	return &Orchestrator{stock: stockAgent, discount: discountAgent}
}

// ProcessCheckout validates the request, runs both agents, and aggregates
// their outputs. The agents are independent, so they run concurrently and
// are joined before aggregation; step records are appended in a fixed
// order (stock first) regardless of which call finishes first.
func (o *Orchestrator) ProcessCheckout(ctx context.Context, req models.CheckoutRequest) models.CheckoutResult {
	if err := validate(req); err != nil {
		metrics.CheckoutsTotal.WithLabelValues("validation_failed").Inc()
		log.WithField("error", err.Error()).Warn("Checkout rejected by validation")
		return models.CheckoutResult{
			Succeeded:    false,
			ErrorMessage: err.Error(),
		}
	}

	steps := steplog.New()
	steps.Append(StepOrchestrator, models.StepStatusPending, "starting checkout")

	subtotal := subtotalOf(req.Cart)

	var (
		wg          sync.WaitGroup
		stockResult models.StockCheckResult
		stockOut    agent.Outcome
		discResult  models.DiscountResult
		discOut     agent.Outcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		stockResult, stockOut = o.runStockAgent(ctx, req.Cart)
	}()
	go func() {
		defer wg.Done()
		discResult, discOut = o.runDiscountAgent(ctx, req.Tier, req.Cart, subtotal)
	}()
	wg.Wait()

	appendAgentStep(steps, StepStockAgent, "stock", stockOut, stockResult.Summary)
	appendAgentStep(steps, StepDiscountAgent, "discount", discOut, discResult.Reason)

	// Re-clamp at the aggregation boundary; an agent bug must not leak a
	// negative or over-subtotal discount into the final price.
	discountAmount := math.Min(math.Max(discResult.DiscountAmount, 0), subtotal)
	total := models.RoundCents(subtotal - discountAmount)

	metrics.CheckoutsTotal.WithLabelValues("completed").Inc()
	metrics.CheckoutAmount.Observe(total)

	log.WithFields(log.Fields{
		"subtotal": subtotal,
		"discount": discountAmount,
		"total":    total,
		"tier":     req.Tier,
	}).Info("Checkout completed")

	return models.CheckoutResult{
		Subtotal:           subtotal,
		DiscountAmount:     discountAmount,
		DiscountReason:     discResult.Reason,
		TotalAfterDiscount: total,
		Steps:              steps.Records(),
		Succeeded:          true,
	}
}

// runStockAgent invokes the stock agent, converting a panic into a fault
// outcome with a safe default so the pipeline continues.
func (o *Orchestrator) runStockAgent(ctx context.Context, cart []models.CartLine) (result models.StockCheckResult, out agent.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Stock agent fault")
			result = models.StockCheckResult{
				HasIssues: false,
				Summary:   stock.FallbackSummary(false),
				Succeeded: false,
			}
			out = agent.Fault(fmt.Sprintf("stock agent fault: %v", r))
		}
	}()

	return o.stock.CheckStock(ctx, models.StockCheckRequest{Items: cart})
}

// runDiscountAgent invokes the discount agent, substituting a zero
// discount on an uncaught fault.
func (o *Orchestrator) runDiscountAgent(ctx context.Context, tier models.MembershipTier, cart []models.CartLine, subtotal float64) (result models.DiscountResult, out agent.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprint(r)).Error("Discount agent fault")
			result = models.DiscountResult{
				DiscountAmount:     0,
				Reason:             "no discount applied (agent unavailable)",
				TotalAfterDiscount: subtotal,
				Succeeded:          false,
			}
			out = agent.Fault(fmt.Sprintf("discount agent fault: %v", r))
		}
	}()

	return o.discount.ComputeDiscount(ctx, models.DiscountRequest{
		Tier:     tier,
		Items:    cart,
		Subtotal: subtotal,
	})
}

// appendAgentStep maps an agent outcome onto a step record
func appendAgentStep(steps *steplog.Log, name, agentLabel string, out agent.Outcome, payload string) {
	switch out.Kind {
	case agent.KindOK:
		steps.Append(name, models.StepStatusSuccess, payload)
	case agent.KindFallback:
		metrics.AgentFallbackTotal.WithLabelValues(agentLabel).Inc()
		steps.Append(name, models.StepStatusWarning, fmt.Sprintf("%s (%s)", payload, out.Reason))
	case agent.KindFault:
		metrics.AgentFaultTotal.WithLabelValues(agentLabel).Inc()
		steps.Append(name, models.StepStatusError, out.Reason)
	}
}

// validate performs fail-fast request validation
func validate(req models.CheckoutRequest) error {
	if len(req.Cart) == 0 {
		return fmt.Errorf("cart must contain at least one item")
	}

	for i, line := range req.Cart {
		if line.ProductName == "" {
			return fmt.Errorf("cart line %d: product_name is required", i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("cart line %d: quantity must be greater than 0", i)
		}
		if line.UnitPrice < 0 {
			return fmt.Errorf("cart line %d: unit_price must not be negative", i)
		}
	}

	if !req.Tier.Valid() {
		return fmt.Errorf("invalid membership tier: %q", req.Tier)
	}

	return nil
}

func subtotalOf(cart []models.CartLine) float64 {
	total := 0.0
	for _, line := range cart {
		total += line.LineTotal()
	}
	return models.RoundCents(total)
}
