package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartshop/checkout/internal/agent"
	"github.com/smartshop/checkout/internal/llm"
	"github.com/smartshop/checkout/internal/models"
)

// mockLLM implements llm.Client for testing
type mockLLM struct {
	text  string
	err   error
	calls int
}

func (m *mockLLM) Generate(context.Context, []llm.Message) (string, error) {
	m.calls++
	return m.text, m.err
}

func TestComputeDiscount_DeterministicTable(t *testing.T) {
	tests := []struct {
		name     string
		tier     models.MembershipTier
		subtotal float64
		want     float64
	}{
		{"gold 20 percent", models.TierGold, 20.00, 4.00},
		{"silver 10 percent", models.TierSilver, 20.00, 2.00},
		{"normal no discount", models.TierNormal, 20.00, 0.00},
		{"gold rounds to cents", models.TierGold, 10.99, 2.20},
		{"zero subtotal", models.TierGold, 0, 0},
	}

	a := NewAgent(llm.Disabled())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
				Tier:     tt.tier,
				Subtotal: tt.subtotal,
			})

			assert.Equal(t, agent.KindOK, out.Kind)
			assert.True(t, result.Succeeded)
			assert.Equal(t, tt.want, result.DiscountAmount)
			assert.Equal(t, models.RoundCents(tt.subtotal-tt.want), result.TotalAfterDiscount)
		})
	}
}

func TestComputeDiscount_DisabledBackendReason(t *testing.T) {
	a := NewAgent(llm.Disabled())

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierGold,
		Subtotal: 20.00,
	})

	assert.Equal(t, agent.KindOK, out.Kind)
	assert.Contains(t, result.Reason, "Gold")
	assert.Contains(t, result.Reason, "20%")
}

func TestComputeDiscount_BackendAgrees(t *testing.T) {
	mock := &mockLLM{text: "PERCENT: 20\nEnjoy your gold member savings!"}
	a := NewAgent(mock)

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierGold,
		Subtotal: 100.00,
	})

	assert.Equal(t, agent.KindOK, out.Kind)
	assert.Equal(t, 20.00, result.DiscountAmount)
	assert.Equal(t, 80.00, result.TotalAfterDiscount)
	assert.Equal(t, "Enjoy your gold member savings!", result.Reason)
	assert.Equal(t, 1, mock.calls)
}

func TestComputeDiscount_BackendDisagrees(t *testing.T) {
	// A generated 50% must never override the 20% table entry
	mock := &mockLLM{text: "PERCENT: 50\nHuge savings today!"}
	a := NewAgent(mock)

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierGold,
		Subtotal: 100.00,
	})

	assert.Equal(t, agent.KindFallback, out.Kind)
	assert.Contains(t, out.Reason, "50")
	assert.Equal(t, 20.00, result.DiscountAmount)
	assert.Contains(t, result.Reason, "Gold")
}

func TestComputeDiscount_BackendError(t *testing.T) {
	mock := &mockLLM{err: errors.New("connection refused")}
	a := NewAgent(mock)

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierSilver,
		Subtotal: 50.00,
	})

	assert.Equal(t, agent.KindFallback, out.Kind)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 5.00, result.DiscountAmount)
	assert.Contains(t, result.Reason, "Silver")
}

func TestComputeDiscount_UnparseableResponse(t *testing.T) {
	mock := &mockLLM{text: "I am sorry, I cannot help with that."}
	a := NewAgent(mock)

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierGold,
		Subtotal: 100.00,
	})

	assert.Equal(t, agent.KindFallback, out.Kind)
	assert.Equal(t, 20.00, result.DiscountAmount)
}

func TestComputeDiscount_OutOfRangePercent(t *testing.T) {
	mock := &mockLLM{text: "PERCENT: 150\nEverything is free!"}
	a := NewAgent(mock)

	result, out := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierNormal,
		Subtotal: 40.00,
	})

	assert.Equal(t, agent.KindFallback, out.Kind)
	assert.Equal(t, 0.00, result.DiscountAmount)
	assert.Equal(t, 40.00, result.TotalAfterDiscount)
}

func TestComputeDiscount_NegativeSubtotalClamped(t *testing.T) {
	a := NewAgent(llm.Disabled())

	result, _ := a.ComputeDiscount(context.Background(), models.DiscountRequest{
		Tier:     models.TierGold,
		Subtotal: -5.00,
	})

	assert.Equal(t, 0.00, result.DiscountAmount)
	assert.Equal(t, 0.00, result.TotalAfterDiscount)
}

func TestComputeDiscount_NeverExceedsSubtotal(t *testing.T) {
	for _, tier := range []models.MembershipTier{models.TierNormal, models.TierSilver, models.TierGold} {
		for _, subtotal := range []float64{0, 0.01, 9.99, 100, 12345.67} {
			result, _ := NewAgent(llm.Disabled()).ComputeDiscount(context.Background(), models.DiscountRequest{
				Tier:     tier,
				Subtotal: subtotal,
			})

			require.GreaterOrEqual(t, result.DiscountAmount, 0.0)
			require.LessOrEqual(t, result.DiscountAmount, subtotal)
		}
	}
}
