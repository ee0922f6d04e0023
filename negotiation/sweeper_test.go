package negotiation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/accord/types"
)

func TestSweepExpired(t *testing.T) {
	e := newTestEngine(t, Options{})

	expired := make([]string, 3)
	for i := range expired {
		expired[i] = initiate(t, e, InitiateRequest{Timeout: time.Nanosecond})
	}
	alive := initiate(t, e, InitiateRequest{Timeout: time.Hour})

	time.Sleep(time.Millisecond)

	n := e.SweepExpired(context.Background())
	assert.Equal(t, len(expired), n)

	for _, id := range expired {
		got := e.GetNegotiation(id)
		assert.Equal(t, types.StatusSuccessful, got.Status)
		assert.Equal(t, types.ResolutionTimeout, got.Resolution)
		assert.NotNil(t, got.FinalAgreement)
	}
	assert.Equal(t, types.StatusInitiated, e.GetNegotiation(alive).Status)

	// A second sweep finds nothing left to resolve.
	assert.Zero(t, e.SweepExpired(context.Background()))
}

func TestSweepExpired_SkipsTerminal(t *testing.T) {
	e := newTestEngine(t, Options{})
	ctx := context.Background()

	id := initiate(t, e, InitiateRequest{Timeout: time.Nanosecond})
	require.NoError(t, e.Abort(ctx, id, "done before sweep"))

	assert.Zero(t, e.SweepExpired(ctx))
	got := e.GetNegotiation(id)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, types.ResolutionAborted, got.Resolution)
}

func TestSweeper_StartStop(t *testing.T) {
	e := newTestEngine(t, Options{})
	id := initiate(t, e, InitiateRequest{Timeout: time.Nanosecond})

	s := NewSweeper(e, 5*time.Millisecond, nil)
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return e.GetNegotiation(id).Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, types.ResolutionTimeout, e.GetNegotiation(id).Resolution)

	// Stop is idempotent.
	s.Stop()
	s.Stop()
}
