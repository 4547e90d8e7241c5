package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/magicchess/predictor-api/internal/models"
)

// transitionWeight favors "what followed this opponent before" over plain
// positional frequency when merging the two strategies.
const transitionWeight = 2

type predictorService struct {
	ch       driver.Conn
	redis    RedisCache
	cacheTTL time.Duration
	logger   *zap.SugaredLogger
}

func NewPredictorService(ch driver.Conn, redis RedisCache, cacheTTL time.Duration, logger *zap.Logger) PredictorService {
	return &predictorService{
		ch:       ch,
		redis:    redis,
		cacheTTL: cacheTTL,
		logger:   logger.Sugar(),
	}
}

// PredictNext merges two strategies over the observation log:
// transition counts (which opponent followed lastOpponent for this player,
// weighted double) and position counts (which opponent shows up at the next
// round position). With no data at all it degrades to a uniform guess over
// the rest of the roster. Returns the top three, scored as percentages of
// the top-three total, rounded to one decimal.
func (s *predictorService) PredictNext(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error) {
	cacheKey := fmt.Sprintf("predict:%s:%s:%s", player, currentRound, lastOpponent)
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []models.Prediction
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	scores := make(map[string]uint64)

	// Strategy 1: transition-based
	rows, err := s.ch.Query(ctx, `
		SELECT opponent, count() AS cnt
		FROM magicchess.match_observations
		WHERE player = ? AND prev_opponent = ?
		GROUP BY opponent
	`, player, lastOpponent)
	if err == nil {
		for rows.Next() {
			var opponent string
			var cnt uint64
			if err := rows.Scan(&opponent, &cnt); err == nil {
				scores[opponent] += cnt * transitionWeight
			}
		}
		rows.Close()
	} else {
		s.logger.Warnw("Transition query failed", "player", player, "error", err)
	}

	// Strategy 2: position-based, for the round position after the current one
	nextRoundIdx := ExtractRoundNumber(currentRound) + 1
	posRows, err := s.ch.Query(ctx, `
		SELECT opponent, count() AS cnt
		FROM magicchess.match_observations
		WHERE player = ? AND round_index = ?
		GROUP BY opponent
	`, player, nextRoundIdx)
	if err == nil {
		for posRows.Next() {
			var opponent string
			var cnt uint64
			if err := posRows.Scan(&opponent, &cnt); err == nil {
				if opponent != player { // can't play yourself
					scores[opponent] += cnt
				}
			}
		}
		posRows.Close()
	} else {
		s.logger.Warnw("Position query failed", "player", player, "error", err)
	}

	// Fallback: uniform over the rest of the roster
	if len(scores) == 0 {
		for _, p := range models.Players {
			if p != player {
				scores[p] = 1
			}
		}
	}

	predictions := topPredictions(scores, 3)

	if s.redis != nil {
		if data, err := json.Marshal(predictions); err == nil {
			s.redis.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return predictions, nil
}

// PredictBatch replays a recorded (round, opponent) sequence, producing one
// prediction set per step. Steps with an empty opponent are skipped.
func (s *predictorService) PredictBatch(ctx context.Context, player string, history []models.BatchPredictItem) ([]models.PredictionResult, error) {
	results := make([]models.PredictionResult, 0, len(history))
	for _, item := range history {
		if item.Opponent == "" {
			continue
		}
		preds, err := s.PredictNext(ctx, player, item.Round, item.Opponent)
		if err != nil {
			return nil, err
		}
		results = append(results, models.PredictionResult{
			Round:       item.Round,
			Opponent:    item.Opponent,
			Predictions: preds,
		})
	}
	return results, nil
}

// topPredictions ranks scores, keeps the best n and converts them to
// percentages of the kept total. Ties break by name for determinism.
func topPredictions(scores map[string]uint64, n int) []models.Prediction {
	type scored struct {
		opponent string
		score    uint64
	}
	ranked := make([]scored, 0, len(scores))
	for opponent, score := range scores {
		ranked = append(ranked, scored{opponent: opponent, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].opponent < ranked[j].opponent
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	var total uint64
	for _, r := range ranked {
		total += r.score
	}

	predictions := make([]models.Prediction, 0, len(ranked))
	for _, r := range ranked {
		pct := float64(r.score) / float64(total) * 100
		predictions = append(predictions, models.Prediction{
			Opponent:    r.opponent,
			Probability: math.Round(pct*10) / 10,
		})
	}
	return predictions
}

// ExtractRoundNumber maps a round label like "I-2" to its 0-based position
// within a stage. Malformed labels collapse to 0.
func ExtractRoundNumber(round string) int {
	parts := strings.Split(round, "-")
	if len(parts) == 2 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			return n - 1
		}
	}
	return 0
}
