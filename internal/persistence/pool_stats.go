package persistence

import "go.uber.org/zap"

// PoolStats is a point-in-time view of a connection pool.
type PoolStats struct {
	Total int `json:"total"`
	Idle  int `json:"idle"`
	InUse int `json:"in_use"`
	Max   int `json:"max"`
}

func (s PoolStats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("pool_total", s.Total),
		zap.Int("pool_idle", s.Idle),
		zap.Int("pool_in_use", s.InUse),
		zap.Int("pool_max", s.Max),
	}
}
