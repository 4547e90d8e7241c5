package models

// MatchObservation is one cell of a recorded match table: in match MatchID,
// Player faced Opponent at round position RoundIndex (0-based), having faced
// PrevOpponent the round before. PrevOpponent is empty for the first recorded
// round of a run.
type MatchObservation struct {
	MatchID      string `json:"match_id" validate:"required"`
	Player       string `json:"player" validate:"required"`
	RoundIndex   int    `json:"round_index" validate:"gte=0"`
	Opponent     string `json:"opponent" validate:"required"`
	PrevOpponent string `json:"prev_opponent"`
}
