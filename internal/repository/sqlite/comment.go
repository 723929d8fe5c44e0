package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/quill/internal/domain"
)

func (r *articleRepo) AddComment(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, article_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, comment.ArticleID, comment.UserID, comment.Content, now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = id
	comment.CreatedAt = now
	return nil
}

func (r *articleRepo) DeleteOwnedComment(ctx context.Context, authorID, commentID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM comments
		 WHERE id = ? AND article_id IN (SELECT id FROM articles WHERE author_id = ?)`,
		commentID, authorID,
	)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return ownedResult(result)
}

func (r *articleRepo) ListCommentsByAuthor(ctx context.Context, authorID string) ([]domain.AuthorComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.article_id, c.user_id, COALESCE(u.username, ''), c.content, c.created_at, a.title
		 FROM comments c
		 JOIN articles a ON a.id = c.article_id
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE a.author_id = ?
		 ORDER BY c.created_at, c.rowid`, authorID)
	if err != nil {
		return nil, fmt.Errorf("list author comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.AuthorComment{}
	for rows.Next() {
		var c domain.AuthorComment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt, &c.ArticleTitle); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *articleRepo) loadComments(ctx context.Context, articleID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.article_id, c.user_id, COALESCE(u.username, ''), c.content, c.created_at
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.article_id = ?
		 ORDER BY c.created_at, c.rowid`, articleID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
