// Package policy is the seam to the external trained decision policy: a
// feature vector goes in, an action index and an optional value estimate
// come out. Nothing about how the policy learned lives on this side of
// the seam.
package policy

import (
	"context"
	"fmt"

	"janus/internal/model"
)

// Policy is the contract the external policy artifact must satisfy for
// serving. Predictions are deterministic: no on-policy exploration at
// serving time. Adapters reshape the 1-D feature vector into a
// single-row batch internally; the serving path never batches.
type Policy interface {
	Predict(ctx context.Context, features []float64) (model.Decision, error)
}

// Func adapts a plain function to the Policy interface.
type Func func(ctx context.Context, features []float64) (model.Decision, error)

func (f Func) Predict(ctx context.Context, features []float64) (model.Decision, error) {
	return f(ctx, features)
}

// UnavailableError wraps a failure of the external policy: artifact
// missing, load failure, or input shape rejection. It is surfaced to the
// caller untouched; retry policy belongs to the serving boundary, never
// to this layer.
type UnavailableError struct {
	Controller model.Controller
	Reason     string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s policy unavailable: %s: %v", e.Controller, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s policy unavailable: %s", e.Controller, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
