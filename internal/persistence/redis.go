package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	r := &Redis{Client: client}
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", append([]zap.Field{zap.Int("db", cfg.DB)}, r.Stats().fields()...)...)
	}
	return r
}

// Stats reports client pool usage; zero when no client is configured.
func (r *Redis) Stats() PoolStats {
	if r == nil || r.Client == nil {
		return PoolStats{}
	}
	st := r.Client.PoolStats()
	total, idle := int(st.TotalConns), int(st.IdleConns)
	return PoolStats{
		Total: total,
		Idle:  idle,
		InUse: total - idle,
		Max:   r.Client.Options().PoolSize,
	}
}

// Handle returns the underlying client, nil when unconfigured.
func (r *Redis) Handle() *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
