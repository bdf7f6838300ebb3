package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigetic/helpdesk/internal/domain"
)

// SiteRepository reads sites and the messaging channel bound to each.
type SiteRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Site, error)
	GetActiveChannel(ctx context.Context, siteID int64) (*domain.SiteChannel, error)
	UpdateChannelChatID(ctx context.Context, channelID int64, chatID string) error
}

type siteRepository struct {
	pool *pgxpool.Pool
}

// NewSiteRepository builds the repository.
func NewSiteRepository(pool *pgxpool.Pool) SiteRepository {
	return &siteRepository{pool: pool}
}

func (r *siteRepository) GetByID(ctx context.Context, id int64) (*domain.Site, error) {
	const query = `
        SELECT id, name, address, phone, email, active, created_at, updated_at, deleted_at
        FROM sites WHERE id=$1`
	var site domain.Site
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&site.ID,
		&site.Name,
		&site.Address,
		&site.Phone,
		&site.Email,
		&site.Active,
		&site.CreatedAt,
		&site.UpdatedAt,
		&site.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *siteRepository) GetActiveChannel(ctx context.Context, siteID int64) (*domain.SiteChannel, error) {
	const query = `
        SELECT id, site_id, chat_id, name, active, created_at, updated_at
        FROM site_channels WHERE site_id=$1 AND active = TRUE`
	var channel domain.SiteChannel
	if err := r.pool.QueryRow(ctx, query, siteID).Scan(
		&channel.ID,
		&channel.SiteID,
		&channel.ChatID,
		&channel.Name,
		&channel.Active,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &channel, nil
}

// UpdateChannelChatID records the identifier a channel was migrated to.
func (r *siteRepository) UpdateChannelChatID(ctx context.Context, channelID int64, chatID string) error {
	const query = `UPDATE site_channels SET chat_id=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, chatID, channelID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
