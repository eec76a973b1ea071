// Package stock implements the stock-check agent: it decides whether a
// cart can be fulfilled and produces a user-facing summary, via the
// text-generation backend when available and a deterministic message
// otherwise.
package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/smartshop/checkout/internal/agent"
	"github.com/smartshop/checkout/internal/llm"
	"github.com/smartshop/checkout/internal/models"
)

const systemPrompt = "You are a friendly, concise, positive e-commerce assistant. " +
	"Summarize the stock situation of the customer's cart in one or two short sentences."

// Deterministic summaries, keyed only on whether issues were found
const (
	summaryAllInStock = "All items are in stock and ready to ship."
	summaryLimited    = "Some items in your cart have limited availability."
)

// Agent decides cart fulfillability
type Agent struct {
	source Source
	llm    llm.Client
}

// NewAgent creates a stock agent. A nil source defaults to AlwaysAvailable.
func NewAgent(source Source, client llm.Client) *Agent {
	if source == nil {
		source = AlwaysAvailable{}
	}
	if client == nil {
		client = llm.Disabled()
	}
	return &Agent{source: source, llm: client}
}

// CheckStock determines availability per line and produces a summary.
// It never returns a Go error: every failure resolves to a fallback or
// fault outcome.
func (a *Agent) CheckStock(ctx context.Context, req models.StockCheckRequest) (models.StockCheckResult, agent.Outcome) {
	if req.Items == nil {
		return models.StockCheckResult{
			Summary:   summaryAllInStock,
			Succeeded: false,
		}, agent.Fault("stock check request has no items")
	}

	issues := a.findIssues(req.Items)

	result := models.StockCheckResult{
		HasIssues: len(issues) > 0,
		Issues:    issues,
		Succeeded: true,
	}

	summary, err := a.llm.Generate(ctx, a.buildPrompt(req.Items, issues))
	if err != nil || strings.TrimSpace(summary) == "" {
		result.Summary = FallbackSummary(result.HasIssues)

		// Disabled by configuration is the normal deterministic path,
		// not a degradation.
		if errors.Is(err, llm.ErrDisabled) {
			return result, agent.OK()
		}

		reason := "blank response"
		if err != nil {
			reason = err.Error()
		}
		log.WithFields(log.Fields{
			"agent":  "stock",
			"reason": reason,
		}).Warn("Using deterministic stock summary")
		return result, agent.Fallback(fmt.Sprintf("text generation unavailable: %s", reason))
	}

	result.Summary = strings.TrimSpace(summary)
	return result, agent.OK()
}

// findIssues checks every line against the stock source. A source error
// counts as zero availability for that line.
func (a *Agent) findIssues(items []models.CartLine) []models.StockIssue {
	var issues []models.StockIssue
	for _, line := range items {
		available, err := a.source.Availability(line.ProductName, line.Quantity)
		if err != nil {
			issues = append(issues, models.StockIssue{
				ProductName:  line.ProductName,
				RequestedQty: line.Quantity,
				AvailableQty: 0,
				Message:      fmt.Sprintf("availability lookup failed: %v", err),
			})
			continue
		}
		if available < line.Quantity {
			issues = append(issues, models.StockIssue{
				ProductName:  line.ProductName,
				RequestedQty: line.Quantity,
				AvailableQty: available,
				Message:      fmt.Sprintf("only %d of %d available", available, line.Quantity),
			})
		}
	}
	return issues
}

// buildPrompt enumerates the lines and their computed status for the backend
func (a *Agent) buildPrompt(items []models.CartLine, issues []models.StockIssue) []llm.Message {
	short := make(map[string]models.StockIssue, len(issues))
	for _, issue := range issues {
		short[issue.ProductName] = issue
	}

	var b strings.Builder
	b.WriteString("Cart contents and stock status:\n")
	for _, line := range items {
		if issue, ok := short[line.ProductName]; ok {
			fmt.Fprintf(&b, "- %s x%d: limited (%s)\n", line.ProductName, line.Quantity, issue.Message)
		} else {
			fmt.Fprintf(&b, "- %s x%d: in stock\n", line.ProductName, line.Quantity)
		}
	}
	b.WriteString("Write a short stock summary for the customer.")

	return []llm.Message{
		{Role: llm.RoleSystem, Text: systemPrompt},
		{Role: llm.RoleUser, Text: b.String()},
	}
}

// FallbackSummary is the deterministic summary used when text generation
// is unavailable. The orchestrator also uses it as the safe default when
// the agent itself faults.
func FallbackSummary(hasIssues bool) string {
	if hasIssues {
		return summaryLimited
	}
	return summaryAllInStock
}
