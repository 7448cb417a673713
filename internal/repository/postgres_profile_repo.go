package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/dreamjournal/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

const profileColumns = `id, email, display_name, avatar_url, created_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.Profile, error) {
	p := &model.Profile{}
	var displayName, avatarURL sql.NullString
	if err := row.Scan(&p.ID, &p.Email, &displayName, &avatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	if displayName.Valid {
		p.DisplayName = &displayName.String
	}
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}
	return p, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return p, nil
}

// FindByIdentity はidentitiesを経由してプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByIdentity(ctx context.Context, provider, providerUserID string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`SELECT p.id, p.email, p.display_name, p.avatar_url, p.created_at
		 FROM profiles p
		 JOIN identities i ON i.profile_id = p.id
		 WHERE i.provider = $1 AND i.provider_user_id = $2`,
		provider, providerUserID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile by identity: %w", err)
	}
	return p, nil
}

// CreateWithIdentity はプロフィールとidentityを同一トランザクションで作成する。
func (r *PostgresProfileRepo) CreateWithIdentity(ctx context.Context, profile *model.Profile, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, email, display_name, avatar_url, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		profile.ID, profile.Email, profile.DisplayName, profile.AvatarURL, profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, profile_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.ProfileID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateDisplayName は表示名を更新し、更新後のプロフィールを返す。
// 更新対象が存在しない場合はnilを返す。
func (r *PostgresProfileRepo) UpdateDisplayName(ctx context.Context, id string, displayName *string) (*model.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		`UPDATE profiles SET display_name = $2 WHERE id = $1 RETURNING `+profileColumns,
		id, displayName,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update display name: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
