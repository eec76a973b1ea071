// Package agent defines the outcome contract shared by the checkout
// agents. Agents never return Go errors to the orchestrator; every
// call resolves to a result plus an Outcome describing which path
// produced it.
package agent

// Kind classifies how an agent arrived at its result
type Kind int

// Outcome kinds
const (
	// KindOK means the primary (AI-assisted) path produced the result.
	KindOK Kind = iota
	// KindFallback means the deterministic fallback produced the result.
	KindFallback
	// KindFault means the agent hit an irrecoverable input or internal
	// fault and the result is a safe default.
	KindFault
)

// Outcome describes which path an agent took and why
type Outcome struct {
	Kind   Kind
	Reason string
}

// OK reports an AI-path success
func OK() Outcome {
	return Outcome{Kind: KindOK}
}

// Fallback reports a deterministic-path result with the cause
func Fallback(reason string) Outcome {
	return Outcome{Kind: KindFallback, Reason: reason}
}

// Fault reports an irrecoverable agent fault
func Fault(reason string) Outcome {
	return Outcome{Kind: KindFault, Reason: reason}
}
