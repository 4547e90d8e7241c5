package logic

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magicchess/predictor-api/internal/models"
)

// RedisCache defines the subset of the Redis client the engine uses for
// response caching
type RedisCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PredictorService scores likely next opponents from recorded match
// observations
type PredictorService interface {
	PredictNext(ctx context.Context, player, currentRound, lastOpponent string) ([]models.Prediction, error)
	PredictBatch(ctx context.Context, player string, history []models.BatchPredictItem) ([]models.PredictionResult, error)
}
