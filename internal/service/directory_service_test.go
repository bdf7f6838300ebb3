package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigetic/helpdesk/internal/domain"
	apperrors "github.com/sigetic/helpdesk/pkg/util/errorutil"
)

func newDirectory(t *testing.T, users *mockUserRepo) (*DirectoryService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDirectoryService(users, client, time.Minute, nil), mr
}

func TestDirectory_CachesTechnicians(t *testing.T) {
	calls := 0
	users := &mockUserRepo{ListTechniciansFunc: func(context.Context) ([]domain.User, error) {
		calls++
		return []domain.User{
			{ID: 20, Username: "jdoe", FirstName: "Jane", LastName: "Doe", PasswordHash: "secret", Role: domain.RoleTechnician, Active: true, Enabled: true},
			{ID: 21, Username: "lead", Role: domain.RoleSupportLead, Active: true, Enabled: true},
		}, nil
	}}
	dir, mr := newDirectory(t, users)
	ctx := context.Background()

	first, err := dir.ListTechnicians(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	raw, err := mr.Get(technicianDirectoryKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret")
	assert.True(t, mr.TTL(technicianDirectoryKey) > 0)

	second, err := dir.ListTechnicians(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Jane Doe", second[0].DisplayName())
	assert.Equal(t, "lead", second[1].DisplayName())
	assert.True(t, second[0].CanBeAssigned())

	dir.Invalidate(ctx)
	_, err = dir.ListTechnicians(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDirectory_CorruptCacheFallsBack(t *testing.T) {
	users := &mockUserRepo{ListTechniciansFunc: func(context.Context) ([]domain.User, error) {
		return []domain.User{{ID: 20, Username: "jdoe"}}, nil
	}}
	dir, mr := newDirectory(t, users)
	require.NoError(t, mr.Set(technicianDirectoryKey, "{not json"))

	list, err := dir.ListTechnicians(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDirectory_NoCache(t *testing.T) {
	users := &mockUserRepo{ListTechniciansFunc: func(context.Context) ([]domain.User, error) {
		return nil, errors.New("db down")
	}}
	dir := NewDirectoryService(users, nil, time.Minute, nil)
	_, err := dir.ListTechnicians(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	assert.NotPanics(t, func() { dir.Invalidate(context.Background()) })

	users.ListTechniciansFunc = nil
	list, err := dir.ListTechnicians(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
}
