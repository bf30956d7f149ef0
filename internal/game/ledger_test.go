package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boogle/go-server/internal/store"
)

// rows folds a checklist into word → checked-flags for order-free asserts.
func rows(list []Word) map[string][]bool {
	out := make(map[string][]bool)
	for _, w := range list {
		out[w.Word] = append(out[w.Word], w.Checked)
	}
	return out
}

func TestLedgerAppendExpandsPerUnit(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	require.NoError(t, l.Append(ctx, "alice", "CAT"))
	require.NoError(t, l.Append(ctx, "alice", "CAT"))
	require.NoError(t, l.Append(ctx, "alice", "DOG"))

	list, err := l.Checklist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{
		"CAT": {true, true},
		"DOG": {true},
	}, rows(list))
}

func TestLedgerJudgmentToggle(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	require.NoError(t, l.Append(ctx, "k", "CAT"))

	// Retract: count drops to zero, a single unchecked row remains.
	require.NoError(t, l.SetJudgment(ctx, "k", "CAT", false))
	list, err := l.Checklist(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{"CAT": {false}}, rows(list))

	// Re-affirm: the toggle nets back to the original count.
	require.NoError(t, l.SetJudgment(ctx, "k", "CAT", true))
	list, err = l.Checklist(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{"CAT": {true}}, rows(list))
}

func TestLedgerNegativeCountStaysSingleRow(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	// Two retractions of a never-submitted word drive the count to -2;
	// the checklist still shows exactly one unchecked row.
	require.NoError(t, l.SetJudgment(ctx, "k", "ZZZ", false))
	require.NoError(t, l.SetJudgment(ctx, "k", "ZZZ", false))

	list, err := l.Checklist(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{"ZZZ": {false}}, rows(list))
}

func TestLedgerEdit(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	require.NoError(t, l.Append(ctx, "alice", "TEH"))
	require.NoError(t, l.Edit(ctx, "alice", "TEH", "THE"))

	list, err := l.Checklist(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{
		"TEH": {false},
		"THE": {true},
	}, rows(list))
}

func TestLedgerRecordCountsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	words := []string{"CAT", "CAT", "DOG"}
	require.NoError(t, l.RecordCounts(ctx, "k", words))
	// A retransmitted payload lands identically.
	require.NoError(t, l.RecordCounts(ctx, "k", words))

	list, err := l.Checklist(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{
		"CAT": {true, true},
		"DOG": {true},
	}, rows(list))
}

func TestLedgerChecklistEmptyNonNil(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	list, err := l.Checklist(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestLedgerViewsChallengeFallback(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	// Base tallies exist, challenge tallies do not: the CHALLENGE views
	// fall back so each side still sees the list it must judge.
	require.NoError(t, l.RecordCounts(ctx, "alice", []string{"CAT"}))
	require.NoError(t, l.RecordCounts(ctx, "bob", []string{"SUN"}))

	self, opp, err := l.Views(ctx, RoundChallenge, "alice", "bob")
	require.NoError(t, err)
	// alice_challenge is empty → falls back to bob's own list.
	assert.Equal(t, map[string][]bool{"SUN": {true}}, rows(self))
	// bob_challenge is empty → falls back to alice's own list.
	assert.Equal(t, map[string][]bool{"CAT": {true}}, rows(opp))
}

func TestLedgerViewsUseChallengeKeys(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	// Finalized hand-offs recorded: alice judges bob's words and vice versa.
	require.NoError(t, l.RecordCounts(ctx, ChallengeKey("alice"), []string{"SUN"}))
	require.NoError(t, l.RecordCounts(ctx, ChallengeKey("bob"), []string{"CAT"}))

	self, opp, err := l.Views(ctx, RoundChallenge, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{"SUN": {true}}, rows(self))
	assert.Equal(t, map[string][]bool{"CAT": {true}}, rows(opp))

	// At RESULT the roles invert: alice reads bob's verdicts on her words.
	self, opp, err = l.Views(ctx, RoundResult, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, map[string][]bool{"CAT": {true}}, rows(self))
	assert.Equal(t, map[string][]bool{"SUN": {true}}, rows(opp))
}

func TestLedgerPurge(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(store.NewMemoryStore(), 0)

	require.NoError(t, l.Append(ctx, "alice", "CAT"))
	require.NoError(t, l.Append(ctx, ChallengeKey("alice"), "SUN"))

	require.NoError(t, l.Purge(ctx, "alice"))

	list, err := l.Checklist(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = l.Checklist(ctx, ChallengeKey("alice"))
	require.NoError(t, err)
	assert.Empty(t, list)
}
