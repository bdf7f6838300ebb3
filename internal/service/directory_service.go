package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sigetic/helpdesk/internal/domain"
	"github.com/sigetic/helpdesk/internal/repository"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

const technicianDirectoryKey = "helpdesk:directory:technicians"

// DirectoryService lists assignable technicians, cached in Redis.
// Assignment never reads this cache.
type DirectoryService struct {
	users  repository.UserRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDirectoryService constructs the service. A nil cache or zero ttl disables caching.
func NewDirectoryService(users repository.UserRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{users: users, cache: cache, ttl: ttl, logger: logger}
}

type cachedTechnician struct {
	ID              int64       `json:"id"`
	Username        string      `json:"username"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	GivenNames      string      `json:"given_names"`
	PaternalSurname string      `json:"paternal_surname"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
}

// ListTechnicians returns eligible technicians ordered by first name, last name and username.
func (s *DirectoryService) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	users, err := s.users.ListTechnicians(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	s.store(ctx, users)
	return users, nil
}

// Invalidate drops the cached directory.
func (s *DirectoryService) Invalidate(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Del(ctx, technicianDirectoryKey).Err(); err != nil {
		s.logger.Warn("technician directory invalidation failed", zap.Error(err))
	}
}

func (s *DirectoryService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *DirectoryService) fromCache(ctx context.Context) ([]domain.User, bool) {
	if !s.cacheEnabled() {
		return nil, false
	}
	data, err := s.cache.Get(ctx, technicianDirectoryKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("technician directory cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []cachedTechnician
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("technician directory cache corrupt", zap.Error(err))
		return nil, false
	}

	users := make([]domain.User, 0, len(entries))
	for _, e := range entries {
		user := domain.User{
			ID:              e.ID,
			Username:        e.Username,
			FirstName:       e.FirstName,
			LastName:        e.LastName,
			GivenNames:      e.GivenNames,
			PaternalSurname: e.PaternalSurname,
			Email:           e.Email,
			Role:            e.Role,
			Active:          true,
			Enabled:         true,
		}
		user.Normalize()
		users = append(users, user)
	}
	return users, true
}

func (s *DirectoryService) store(ctx context.Context, users []domain.User) {
	if !s.cacheEnabled() {
		return
	}
	entries := make([]cachedTechnician, 0, len(users))
	for _, u := range users {
		entries = append(entries, cachedTechnician{
			ID:              u.ID,
			Username:        u.Username,
			FirstName:       u.FirstName,
			LastName:        u.LastName,
			GivenNames:      u.GivenNames,
			PaternalSurname: u.PaternalSurname,
			Email:           u.Email,
			Role:            u.Role,
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, technicianDirectoryKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn("technician directory cache write failed", zap.Error(err))
	}
}
