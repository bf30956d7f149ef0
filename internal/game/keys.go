// internal/game/keys.go
//
// Store key layout. Rooms and solutions are fields of shared hashes keyed
// by room code (the layout the web client's tally keys were built around);
// word tallies live under top-level keys so they can carry a TTL. Barrier
// state (readiness counter, stage-completion markers) is room-scoped.

package game

// Shared hash names.
const (
	roomsKey     = "rooms"     // field: room code → serialized Room
	solutionsKey = "solutions" // field: room code → raw solutions JSON
	connsKey     = "conns"     // field: player id → room code
)

// challengeSuffix namespaces the tally holding judgments a player makes
// about the opponent's words.
const challengeSuffix = "_challenge"

// ChallengeKey returns the judgment-tally key for a player.
// The key holds the *opponent's* finalized words together with this
// player's verdicts on them.
func ChallengeKey(playerID string) string {
	return playerID + challengeSuffix
}

func readyKey(code string) string { return "ready:" + code }
func doneKey(code string) string  { return "done:" + code }

// WordKeys resolves which tally backs each side's checklist at a given
// stage:
//
//	PLAY/CLEAN_UP: raw self-reported words, not yet judged.
//	CHALLENGE:     each side now reads the words it must judge, which were
//	               recorded under its own challenge key.
//	RESULT:        roles invert; each side reads the judgments the opponent
//	               made about its own words.
func WordKeys(round Round, selfID, opponentID string) (selfKey, opponentKey string) {
	switch round {
	case RoundChallenge:
		return ChallengeKey(selfID), ChallengeKey(opponentID)
	case RoundResult:
		return ChallengeKey(opponentID), ChallengeKey(selfID)
	default:
		return selfID, opponentID
	}
}

// fallbackKey returns the tally to consult when a challenge key has no
// entries yet. A challenge key holds the words of its owner's opponent, so
// the fallback is that opponent's own base key. Base keys have no fallback.
func fallbackKey(key, selfID, opponentID string) (string, bool) {
	switch key {
	case ChallengeKey(selfID):
		return opponentID, true
	case ChallengeKey(opponentID):
		return selfID, true
	}
	return "", false
}
