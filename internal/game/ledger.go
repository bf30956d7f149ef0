// internal/game/ledger.go
//
// Word ledger: per-player word tallies and checklist derivation.
//
// A tally maps word → signed count. Counts move by ±1 as words are
// submitted, edited, or judged, so a toggle sequence always returns a
// count to its starting value. Checklist derivation expands a positive
// count into that many checked rows (one row per unit — the shape the web
// client renders) and any count at or below zero into a single unchecked
// row.

package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boogle/go-server/internal/store"
)

// Ledger manipulates word tallies in the shared store.
type Ledger struct {
	st store.Store
	// ttl, when positive, bounds how long an untouched tally survives.
	ttl time.Duration
}

// NewLedger constructs a Ledger. ttl may be zero to disable expiry.
func NewLedger(st store.Store, ttl time.Duration) *Ledger {
	return &Ledger{st: st, ttl: ttl}
}

// touch refreshes the expiry window after a write.
func (l *Ledger) touch(ctx context.Context, key string) {
	if l.ttl > 0 {
		_ = l.st.Expire(ctx, key, l.ttl)
	}
}

// Append records one submission of word under key.
func (l *Ledger) Append(ctx context.Context, key, word string) error {
	if key == "" || word == "" {
		return nil
	}
	if _, err := l.st.HIncrBy(ctx, key, word, 1); err != nil {
		return fmt.Errorf("append word: %w", err)
	}
	l.touch(ctx, key)
	return nil
}

// SetJudgment moves word's count by one in the direction of the verdict.
// Repeated toggles stay consistent: affirm/retract/affirm nets +1.
func (l *Ledger) SetJudgment(ctx context.Context, key, word string, affirmed bool) error {
	if key == "" || word == "" {
		return nil
	}
	delta := int64(-1)
	if affirmed {
		delta = 1
	}
	if _, err := l.st.HIncrBy(ctx, key, word, delta); err != nil {
		return fmt.Errorf("set judgment: %w", err)
	}
	l.touch(ctx, key)
	return nil
}

// Edit renames one unit of prev to next. Net-neutral on the total count.
func (l *Ledger) Edit(ctx context.Context, key, prev, next string) error {
	if key == "" || prev == "" || next == "" {
		return nil
	}
	if _, err := l.st.HIncrBy(ctx, key, prev, -1); err != nil {
		return fmt.Errorf("edit word: %w", err)
	}
	if _, err := l.st.HIncrBy(ctx, key, next, 1); err != nil {
		return fmt.Errorf("edit word: %w", err)
	}
	l.touch(ctx, key)
	return nil
}

// Counts folds a word list into a word → count map.
func Counts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

// RecordCounts writes the counts of words under key as whole fields.
// Field-wise replacement makes a retransmitted payload land identically.
func (l *Ledger) RecordCounts(ctx context.Context, key string, words []string) error {
	if key == "" || len(words) == 0 {
		return nil
	}
	fields := make(map[string]string, len(words))
	for w, n := range Counts(words) {
		fields[w] = strconv.Itoa(n)
	}
	if err := l.st.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("record words: %w", err)
	}
	l.touch(ctx, key)
	return nil
}

// Checklist derives the per-word view for key: count > 0 emits count
// checked rows, count <= 0 emits one unchecked row. Empty tallies yield an
// empty (non-nil) list.
func (l *Ledger) Checklist(ctx context.Context, key string) ([]Word, error) {
	tally, err := l.st.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load tally: %w", err)
	}
	list := make([]Word, 0, len(tally))
	for word, raw := range tally {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if n > 0 {
			for i := 0; i < n; i++ {
				list = append(list, Word{Word: word, Checked: true})
			}
		} else {
			list = append(list, Word{Word: word, Checked: false})
		}
	}
	return list, nil
}

// checklistFor resolves key with the challenge-key fallback: an empty
// challenge tally (the other side has not judged yet) falls back to the
// words' owner's base tally so the client still has a list to show.
func (l *Ledger) checklistFor(ctx context.Context, key, selfID, opponentID string) ([]Word, error) {
	list, err := l.Checklist(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 || !strings.HasSuffix(key, challengeSuffix) {
		return list, nil
	}
	fb, ok := fallbackKey(key, selfID, opponentID)
	if !ok {
		return list, nil
	}
	return l.Checklist(ctx, fb)
}

// Views computes both checklists a player sees at the given stage, using
// the WordKeys table plus fallback.
func (l *Ledger) Views(ctx context.Context, round Round, selfID, opponentID string) (self, opponent []Word, err error) {
	selfKey, oppKey := WordKeys(round, selfID, opponentID)
	if self, err = l.checklistFor(ctx, selfKey, selfID, opponentID); err != nil {
		return nil, nil, err
	}
	if opponent, err = l.checklistFor(ctx, oppKey, selfID, opponentID); err != nil {
		return nil, nil, err
	}
	return self, opponent, nil
}

// Purge deletes every tally variant for the given players.
func (l *Ledger) Purge(ctx context.Context, playerIDs ...string) error {
	keys := make([]string, 0, len(playerIDs)*2)
	for _, id := range playerIDs {
		keys = append(keys, id, ChallengeKey(id))
	}
	return l.st.Del(ctx, keys...)
}
