package models

// Rounds is the fixed tournament round sequence. Stage numerals I-V,
// four rounds per stage. Order matters: chaining walks this slice.
var Rounds = []string{
	"I-1", "I-2", "I-3", "I-4",
	"II-1", "II-2", "II-3", "II-4",
	"III-1", "III-2", "III-3", "III-4",
	"IV-1", "IV-2", "IV-3", "IV-4",
	"V-1", "V-2", "V-3", "V-4",
}

// Players is the fixed lobby roster.
var Players = []string{
	"Player 1", "Player 2", "Player 3", "Player 4",
	"Player 5", "Player 6", "Player 7", "Player 8",
}

var roundIndex = func() map[string]int {
	m := make(map[string]int, len(Rounds))
	for i, r := range Rounds {
		m[r] = i
	}
	return m
}()

var playerSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Players))
	for _, p := range Players {
		m[p] = struct{}{}
	}
	return m
}()

// IsRound reports whether label is one of the fixed round labels.
func IsRound(label string) bool {
	_, ok := roundIndex[label]
	return ok
}

// IsPlayer reports whether name is one of the fixed roster names.
func IsPlayer(name string) bool {
	_, ok := playerSet[name]
	return ok
}

// NextRound returns the successor of round in the fixed sequence.
// The second return is false for the last round and for unknown labels.
func NextRound(round string) (string, bool) {
	i, ok := roundIndex[round]
	if !ok || i+1 >= len(Rounds) {
		return "", false
	}
	return Rounds[i+1], true
}

// IsLastRound reports whether round is the final label of the sequence.
func IsLastRound(round string) bool {
	return round == Rounds[len(Rounds)-1]
}
