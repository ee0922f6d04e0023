package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/accord/types"
)

func newRedisTestLog(t *testing.T) Log {
	t.Helper()
	mr := miniredis.RunT(t)
	log, err := NewRedisLog(RedisConfig{
		Addr:        mr.Addr(),
		KeyPrefix:   "accord-test:",
		DialTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return log
}

func newSQLiteTestLog(t *testing.T) Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accord.db")
	log, err := NewSQLiteLog(path, zap.NewNop())
	require.NoError(t, err)
	return log
}

func testMessage(sender string, typ types.MessageType, price float64) types.Message {
	msg := types.NewMessage(sender, typ, types.Proposal{"price": types.Num(price)})
	msg.ID = sender + "-" + string(typ)
	return msg
}

// TestLog_Conformance runs the same behavioral suite against every backend.
func TestLog_Conformance(t *testing.T) {
	backends := map[string]func(t *testing.T) Log{
		"memory": func(t *testing.T) Log { return NewMemoryLog() },
		"redis":  newRedisTestLog,
		"sqlite": newSQLiteTestLog,
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			log := open(t)
			t.Cleanup(func() { _ = log.Close() })
			ctx := context.Background()

			require.NoError(t, log.Ping(ctx))

			t.Run("messages replay in append order", func(t *testing.T) {
				msgs := []types.Message{
					testMessage("seller", types.MessageProposal, 100),
					testMessage("buyer", types.MessageCounterProposal, 80),
					testMessage("seller", types.MessageAccept, 80),
				}
				for _, m := range msgs {
					require.NoError(t, log.AppendMessage(ctx, "neg-1", m))
				}

				got, err := log.Messages(ctx, "neg-1")
				require.NoError(t, err)
				require.Len(t, got, len(msgs))
				for i, m := range msgs {
					assert.Equal(t, m.ID, got[i].ID)
					assert.Equal(t, m.SenderID, got[i].SenderID)
					assert.Equal(t, m.Type, got[i].Type)
					assert.True(t, m.Content.Equal(got[i].Content))
				}
			})

			t.Run("histories are isolated per negotiation", func(t *testing.T) {
				require.NoError(t, log.AppendMessage(ctx, "neg-2",
					testMessage("broker", types.MessageInform, 0)))

				got, err := log.Messages(ctx, "neg-2")
				require.NoError(t, err)
				assert.Len(t, got, 1)

				got, err = log.Messages(ctx, "neg-unknown")
				require.NoError(t, err)
				assert.Empty(t, got)
			})

			t.Run("empty negotiation id rejected", func(t *testing.T) {
				err := log.AppendMessage(ctx, "", testMessage("x", types.MessageQuery, 0))
				assert.Error(t, err)
			})

			t.Run("outcomes archive oldest first with limit", func(t *testing.T) {
				for i, id := range []string{"neg-a", "neg-b", "neg-c"} {
					require.NoError(t, log.SaveOutcome(ctx, &types.Outcome{
						NegotiationID:  id,
						Subject:        "archive test",
						Status:         types.StatusSuccessful,
						Resolution:     types.ResolutionAccepted,
						FinalAgreement: types.Proposal{"price": types.Num(float64(90 + i))},
						Participants:   []string{"seller", "buyer"},
						Rounds:         i + 1,
						Duration:       time.Duration(i) * time.Second,
					}))
				}

				all, err := log.Outcomes(ctx, 0)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, "neg-a", all[0].NegotiationID)
				assert.Equal(t, "neg-c", all[2].NegotiationID)
				assert.True(t, all[0].FinalAgreement.Equal(types.Proposal{"price": types.Num(90)}))
				assert.Equal(t, []string{"seller", "buyer"}, all[0].Participants)

				limited, err := log.Outcomes(ctx, 2)
				require.NoError(t, err)
				require.Len(t, limited, 2)
				assert.Equal(t, "neg-a", limited[0].NegotiationID)
			})

			t.Run("nil outcome rejected", func(t *testing.T) {
				assert.Error(t, log.SaveOutcome(ctx, nil))
			})
		})
	}
}

func TestMemoryLog_ClosedRejectsOperations(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()
	require.NoError(t, log.Close())

	assert.ErrorIs(t, log.Ping(ctx), ErrStoreClosed)
	assert.ErrorIs(t, log.AppendMessage(ctx, "neg-1", testMessage("a", types.MessageQuery, 0)), ErrStoreClosed)
	_, err := log.Messages(ctx, "neg-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, log.SaveOutcome(ctx, &types.Outcome{NegotiationID: "neg-1"}), ErrStoreClosed)
	_, err = log.Outcomes(ctx, 0)
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryLog_SnapshotsAreIsolated(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()

	msg := testMessage("seller", types.MessageProposal, 100)
	require.NoError(t, log.AppendMessage(ctx, "neg-1", msg))

	got, err := log.Messages(ctx, "neg-1")
	require.NoError(t, err)
	got[0].Content["price"] = types.Num(-1)

	again, err := log.Messages(ctx, "neg-1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, again[0].Content["price"].Num, 1e-9)
}

func TestNewLog_Factory(t *testing.T) {
	log, err := NewLog(Config{Type: StoreTypeMemory}, nil)
	require.NoError(t, err)
	_, ok := log.(*MemoryLog)
	assert.True(t, ok)

	// Unknown types fall back to memory.
	log, err = NewLog(Config{Type: StoreType("bogus")}, nil)
	require.NoError(t, err)
	_, ok = log.(*MemoryLog)
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Type = StoreTypeRedis
	cfg.Redis.Addr = mr.Addr()
	log, err = NewLog(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	_, ok = log.(*RedisLog)
	assert.True(t, ok)

	cfg = DefaultConfig()
	cfg.Type = StoreTypeSQLite
	cfg.Path = filepath.Join(t.TempDir(), "factory.db")
	log, err = NewLog(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	_, ok = log.(*SQLiteLog)
	assert.True(t, ok)
}

func TestNewRedisLog_ConnectFailure(t *testing.T) {
	_, err := NewRedisLog(RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
	}, zap.NewNop())
	assert.Error(t, err)
}
