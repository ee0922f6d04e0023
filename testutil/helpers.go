// Package testutil provides shared helpers and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/accord/types"
)

// TestContext returns a context with a test-scoped timeout.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Buyer returns a buyer fixture preferring a low price.
func Buyer() *types.Participant {
	return &types.Participant{
		ID:       "buyer",
		Name:     "Buyer",
		Priority: 1,
		Preferences: types.Proposal{
			"price":    types.Num(80),
			"delivery": types.Str("express"),
		},
	}
}

// Seller returns a seller fixture preferring a high price, with a price
// floor constraint.
func Seller() *types.Participant {
	return &types.Participant{
		ID:       "seller",
		Name:     "Seller",
		Priority: 2,
		Preferences: types.Proposal{
			"price":    types.Num(120),
			"delivery": types.Str("standard"),
		},
		Constraints: map[string]types.Constraint{
			"price": types.AtLeast(90),
		},
	}
}

// Broker returns a neutral third-party fixture without constraints.
func Broker() *types.Participant {
	return &types.Participant{
		ID:       "broker",
		Name:     "Broker",
		Priority: 3,
		Preferences: types.Proposal{
			"delivery": types.Str("standard"),
			"insured":  types.Boolean(true),
		},
	}
}
