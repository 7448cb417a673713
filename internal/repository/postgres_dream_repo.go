package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/dreamjournal/internal/model"
)

// PostgresDreamRepo はPostgreSQLを使用した夢エントリリポジトリ。
type PostgresDreamRepo struct {
	db *sql.DB
}

// NewPostgresDreamRepo はPostgresDreamRepoを生成する。
func NewPostgresDreamRepo(db *sql.DB) *PostgresDreamRepo {
	return &PostgresDreamRepo{db: db}
}

// Create は夢エントリを作成する。
// IDと作成日時はデータベースのデフォルト値で採番し、dreamに書き戻す。
func (r *PostgresDreamRepo) Create(ctx context.Context, dream *model.Dream) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO dreams (user_id, dream_content, emotions, analysis)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		dream.UserID, dream.DreamContent, pq.Array(dream.Emotions), dream.Analysis,
	).Scan(&dream.ID, &dream.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dream: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの夢エントリを作成日時の降順で返す。
func (r *PostgresDreamRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Dream, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, user_id, dream_content, emotions, analysis
		 FROM dreams
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dreams: %w", err)
	}
	defer rows.Close()

	var dreams []*model.Dream
	for rows.Next() {
		d := &model.Dream{}
		var analysis sql.NullString
		if err := rows.Scan(&d.ID, &d.CreatedAt, &d.UserID, &d.DreamContent, pq.Array(&d.Emotions), &analysis); err != nil {
			return nil, fmt.Errorf("failed to scan dream: %w", err)
		}
		if analysis.Valid {
			d.Analysis = &analysis.String
		}
		dreams = append(dreams, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dreams: %w", err)
	}

	return dreams, nil
}

// Delete は所有者が一致する夢エントリを削除する。
// 他ユーザーのエントリや存在しないIDの場合はfalseを返す。
func (r *PostgresDreamRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dreams WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete dream: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ DreamRepository = (*PostgresDreamRepo)(nil)
