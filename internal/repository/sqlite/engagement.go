package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/quill/internal/domain"
)

func (r *articleRepo) ToggleBookmark(ctx context.Context, articleID, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "SELECT 1 FROM articles WHERE id = ?", articleID); err != nil {
		return false, err
	}
	if err := requireRow(ctx, tx, "SELECT 1 FROM users WHERE id = ?", userID); err != nil {
		return false, err
	}

	added, err := toggleMembership(ctx, tx,
		"DELETE FROM bookmarks WHERE article_id = ? AND user_id = ?",
		"INSERT INTO bookmarks (article_id, user_id, created_at) VALUES (?, ?, ?)",
		articleID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

func (r *articleRepo) ListBookmarkedIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := queryStrings(ctx, r.db,
		"SELECT article_id FROM bookmarks WHERE user_id = ? ORDER BY created_at, rowid", userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return ids, nil
}

func (r *articleRepo) RecordRead(ctx context.Context, articleID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO read_history (article_id, user_id, read_at) VALUES (?, ?, ?)",
		articleID, userID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("record read: %w", err)
	}
	return nil
}

func (r *articleRepo) loadReadHistory(ctx context.Context, articleID string) ([]domain.ReadEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, read_at FROM read_history WHERE article_id = ? ORDER BY id", articleID)
	if err != nil {
		return nil, fmt.Errorf("load read history: %w", err)
	}
	defer rows.Close()

	history := []domain.ReadEntry{}
	for rows.Next() {
		var e domain.ReadEntry
		if err := rows.Scan(&e.UserID, &e.ReadAt); err != nil {
			return nil, fmt.Errorf("scan read entry: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
