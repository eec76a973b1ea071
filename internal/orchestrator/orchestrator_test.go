package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartshop/checkout/internal/agent"
	"github.com/smartshop/checkout/internal/discount"
	"github.com/smartshop/checkout/internal/llm"
	"github.com/smartshop/checkout/internal/models"
	"github.com/smartshop/checkout/internal/stock"
)

// mockStockAgent implements StockAgent for testing
type mockStockAgent struct {
	result models.StockCheckResult
	out    agent.Outcome
	panics bool
	calls  int
}

func (m *mockStockAgent) CheckStock(context.Context, models.StockCheckRequest) (models.StockCheckResult, agent.Outcome) {
	m.calls++
	if m.panics {
		panic("stock agent exploded")
	}
	return m.result, m.out
}

// mockDiscountAgent implements DiscountAgent for testing
type mockDiscountAgent struct {
	result models.DiscountResult
	out    agent.Outcome
	panics bool
	calls  int
}

func (m *mockDiscountAgent) ComputeDiscount(context.Context, models.DiscountRequest) (models.DiscountResult, agent.Outcome) {
	m.calls++
	if m.panics {
		panic("discount agent exploded")
	}
	return m.result, m.out
}

// newDeterministic wires real agents with text generation disabled
func newDeterministic() *Orchestrator {
	client := llm.Disabled()
	return New(
		stock.NewAgent(stock.AlwaysAvailable{}, client),
		discount.NewAgent(client),
	)
}

func goldWidgetRequest() models.CheckoutRequest {
	return models.CheckoutRequest{
		Cart: []models.CartLine{
			{ProductName: "Widget", Quantity: 2, UnitPrice: 10.00},
		},
		Tier: models.TierGold,
	}
}

func stepByName(t *testing.T, steps []models.StepRecord, name string) models.StepRecord {
	t.Helper()
	for _, s := range steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no step named %q", name)
	return models.StepRecord{}
}

func TestProcessCheckout_GoldScenario(t *testing.T) {
	result := newDeterministic().ProcessCheckout(context.Background(), goldWidgetRequest())

	require.True(t, result.Succeeded)
	assert.Equal(t, 20.00, result.Subtotal)
	assert.Equal(t, 4.00, result.DiscountAmount)
	assert.Equal(t, 16.00, result.TotalAfterDiscount)
	assert.Contains(t, result.DiscountReason, "Gold")
	assert.Contains(t, result.DiscountReason, "20%")
	assert.Empty(t, result.ErrorMessage)
}

func TestProcessCheckout_NormalScenario(t *testing.T) {
	req := goldWidgetRequest()
	req.Tier = models.TierNormal

	result := newDeterministic().ProcessCheckout(context.Background(), req)

	require.True(t, result.Succeeded)
	assert.Equal(t, 20.00, result.Subtotal)
	assert.Equal(t, 0.00, result.DiscountAmount)
	assert.Equal(t, 20.00, result.TotalAfterDiscount)
}

func TestProcessCheckout_StepLogCompleteness(t *testing.T) {
	result := newDeterministic().ProcessCheckout(context.Background(), goldWidgetRequest())

	require.NotEmpty(t, result.Steps)
	assert.Equal(t, StepOrchestrator, result.Steps[0].Name)
	assert.Equal(t, models.StepStatusPending, result.Steps[0].Status)

	stockStep := stepByName(t, result.Steps, StepStockAgent)
	assert.Equal(t, models.StepStatusSuccess, stockStep.Status)
	assert.NotEmpty(t, stockStep.Message)

	discountStep := stepByName(t, result.Steps, StepDiscountAgent)
	assert.Equal(t, models.StepStatusSuccess, discountStep.Status)
}

func TestProcessCheckout_StepOrderIsFixed(t *testing.T) {
	// Agents run concurrently, but the log order is deterministic
	for i := 0; i < 25; i++ {
		result := newDeterministic().ProcessCheckout(context.Background(), goldWidgetRequest())

		require.Len(t, result.Steps, 3)
		assert.Equal(t, StepOrchestrator, result.Steps[0].Name)
		assert.Equal(t, StepStockAgent, result.Steps[1].Name)
		assert.Equal(t, StepDiscountAgent, result.Steps[2].Name)
	}
}

func TestProcessCheckout_Idempotent(t *testing.T) {
	o := newDeterministic()
	req := goldWidgetRequest()

	first := o.ProcessCheckout(context.Background(), req)
	second := o.ProcessCheckout(context.Background(), req)

	assert.Equal(t, first.Subtotal, second.Subtotal)
	assert.Equal(t, first.DiscountAmount, second.DiscountAmount)
	assert.Equal(t, first.TotalAfterDiscount, second.TotalAfterDiscount)
	assert.Equal(t, first.DiscountReason, second.DiscountReason)
	require.Len(t, second.Steps, len(first.Steps))
	for i := range first.Steps {
		assert.Equal(t, first.Steps[i].Name, second.Steps[i].Name)
		assert.Equal(t, first.Steps[i].Status, second.Steps[i].Status)
		assert.Equal(t, first.Steps[i].Message, second.Steps[i].Message)
	}
}

func TestProcessCheckout_BackendFailureIsIsolated(t *testing.T) {
	// A failing text-generation backend degrades both agents to their
	// deterministic fallbacks without failing the checkout
	failing := &failingLLM{}
	o := New(
		stock.NewAgent(stock.AlwaysAvailable{}, failing),
		discount.NewAgent(failing),
	)

	result := o.ProcessCheckout(context.Background(), goldWidgetRequest())

	require.True(t, result.Succeeded)
	assert.Equal(t, 4.00, result.DiscountAmount)
	assert.Equal(t, 16.00, result.TotalAfterDiscount)

	stockStep := stepByName(t, result.Steps, StepStockAgent)
	assert.Equal(t, models.StepStatusWarning, stockStep.Status)
	discountStep := stepByName(t, result.Steps, StepDiscountAgent)
	assert.Equal(t, models.StepStatusWarning, discountStep.Status)
}

type failingLLM struct{}

func (failingLLM) Generate(context.Context, []llm.Message) (string, error) {
	return "", errors.New("backend unavailable")
}

func TestProcessCheckout_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.CheckoutRequest)
		wantMsg string
	}{
		{
			name:    "empty cart",
			mutate:  func(r *models.CheckoutRequest) { r.Cart = nil },
			wantMsg: "at least one item",
		},
		{
			name:    "negative quantity",
			mutate:  func(r *models.CheckoutRequest) { r.Cart[0].Quantity = -1 },
			wantMsg: "quantity",
		},
		{
			name:    "missing product name",
			mutate:  func(r *models.CheckoutRequest) { r.Cart[0].ProductName = "" },
			wantMsg: "product_name",
		},
		{
			name:    "negative price",
			mutate:  func(r *models.CheckoutRequest) { r.Cart[0].UnitPrice = -0.01 },
			wantMsg: "unit_price",
		},
		{
			name:    "unknown tier",
			mutate:  func(r *models.CheckoutRequest) { r.Tier = "platinum" },
			wantMsg: "tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stockMock := &mockStockAgent{}
			discountMock := &mockDiscountAgent{}
			o := New(stockMock, discountMock)

			req := goldWidgetRequest()
			tt.mutate(&req)

			result := o.ProcessCheckout(context.Background(), req)

			assert.False(t, result.Succeeded)
			assert.Contains(t, result.ErrorMessage, tt.wantMsg)
			assert.Empty(t, result.Steps)
			// No agent invocations on validation failure
			assert.Equal(t, 0, stockMock.calls)
			assert.Equal(t, 0, discountMock.calls)
		})
	}
}

func TestProcessCheckout_StockAgentPanicIsAbsorbed(t *testing.T) {
	o := New(
		&mockStockAgent{panics: true},
		&mockDiscountAgent{
			result: models.DiscountResult{
				DiscountAmount:     4.00,
				Reason:             "Gold member: 20% discount applied",
				TotalAfterDiscount: 16.00,
				Succeeded:          true,
			},
			out: agent.OK(),
		},
	)

	result := o.ProcessCheckout(context.Background(), goldWidgetRequest())

	require.True(t, result.Succeeded)
	assert.Equal(t, 4.00, result.DiscountAmount)

	stockStep := stepByName(t, result.Steps, StepStockAgent)
	assert.Equal(t, models.StepStatusError, stockStep.Status)
	assert.Contains(t, stockStep.Message, "stock agent fault")
}

func TestProcessCheckout_DiscountAgentPanicMeansZeroDiscount(t *testing.T) {
	o := New(
		&mockStockAgent{
			result: models.StockCheckResult{Summary: "all good", Succeeded: true},
			out:    agent.OK(),
		},
		&mockDiscountAgent{panics: true},
	)

	result := o.ProcessCheckout(context.Background(), goldWidgetRequest())

	require.True(t, result.Succeeded)
	assert.Equal(t, 0.00, result.DiscountAmount)
	assert.Equal(t, result.Subtotal, result.TotalAfterDiscount)

	discountStep := stepByName(t, result.Steps, StepDiscountAgent)
	assert.Equal(t, models.StepStatusError, discountStep.Status)
}

func TestProcessCheckout_DiscountReclampedAtAggregation(t *testing.T) {
	// A buggy agent proposing more than the subtotal must not produce a
	// negative total
	o := New(
		&mockStockAgent{
			result: models.StockCheckResult{Summary: "ok", Succeeded: true},
			out:    agent.OK(),
		},
		&mockDiscountAgent{
			result: models.DiscountResult{
				DiscountAmount: 999.00,
				Reason:         "bug",
				Succeeded:      true,
			},
			out: agent.OK(),
		},
	)

	result := o.ProcessCheckout(context.Background(), goldWidgetRequest())

	require.True(t, result.Succeeded)
	assert.Equal(t, 20.00, result.DiscountAmount)
	assert.Equal(t, 0.00, result.TotalAfterDiscount)
}

func TestProcessCheckout_SubtotalRounding(t *testing.T) {
	req := models.CheckoutRequest{
		Cart: []models.CartLine{
			{ProductName: "Widget", Quantity: 3, UnitPrice: 0.10},
			{ProductName: "Gadget", Quantity: 1, UnitPrice: 19.99},
		},
		Tier: models.TierNormal,
	}

	result := newDeterministic().ProcessCheckout(context.Background(), req)

	require.True(t, result.Succeeded)
	assert.Equal(t, 20.29, result.Subtotal)
	assert.Equal(t, 20.29, result.TotalAfterDiscount)
}
