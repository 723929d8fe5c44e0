package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/quill/internal/domain"
)

// articleRepo implements domain.ArticleRepository using SQLite.
type articleRepo struct {
	db *sql.DB
}

const articleSelect = `
	SELECT a.id, a.author_id, a.title, a.content, a.category, a.tags, a.image, a.status,
	       a.created_at, a.updated_at,
	       u.name, u.username, u.email,
	       (SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id)
	FROM articles a
	LEFT JOIN users u ON u.id = a.author_id`

func scanArticle(row interface{ Scan(...any) error }) (*domain.Article, error) {
	a := &domain.Article{}
	var tags, status string
	var name, username, email sql.NullString
	if err := row.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Content, &a.Category, &tags, &a.Image, &status,
		&a.CreatedAt, &a.UpdatedAt, &name, &username, &email, &a.CommentCount); err != nil {
		return nil, err
	}
	a.Status = domain.ArticleStatus(status)
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if username.Valid {
		a.Author = &domain.Author{ID: a.AuthorID, Name: name.String, Username: username.String, Email: email.String}
	}
	return a, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func (r *articleRepo) Create(ctx context.Context, article *domain.Article) error {
	tags, err := encodeTags(article.Tags)
	if err != nil {
		return err
	}
	if article.Status == "" {
		article.Status = domain.StatusDraft
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO articles (id, author_id, title, content, category, tags, image, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, article.AuthorID, article.Title, article.Content, article.Category, tags,
		article.Image, string(article.Status), now, now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: author does not exist", domain.ErrNotFound)
		}
		return fmt.Errorf("insert article: %w", err)
	}

	article.ID = id
	article.CreatedAt = now
	article.UpdatedAt = now
	return nil
}

func (r *articleRepo) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, articleSelect+` WHERE a.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}

	if a.Comments, err = r.loadComments(ctx, id); err != nil {
		return nil, err
	}
	if a.Bookmarks, err = queryStrings(ctx, r.db,
		"SELECT user_id FROM bookmarks WHERE article_id = ? ORDER BY created_at, rowid", id); err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	if a.ReadHistory, err = r.loadReadHistory(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func buildFilter(f domain.ArticleFilter) (string, []any) {
	var where []string
	var args []any
	if f.AuthorID != "" {
		where = append(where, "a.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Category != "" {
		where = append(where, "a.category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(a.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (r *articleRepo) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	where, args := buildFilter(filter)
	query := articleSelect + where + " ORDER BY a.created_at DESC, a.rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}
	return r.queryArticles(ctx, query, args...)
}

func (r *articleRepo) Count(ctx context.Context, filter domain.ArticleFilter) (int, error) {
	where, args := buildFilter(filter)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles a"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (r *articleRepo) UpdateOwned(ctx context.Context, authorID, id string, patch domain.ArticlePatch) error {
	if patch.IsEmpty() {
		err := requireRow(ctx, r.db, "SELECT 1 FROM articles WHERE id = ? AND author_id = ?", id, authorID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFoundOrForbidden
		}
		return err
	}

	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	if patch.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *patch.Image)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id, authorID)

	result, err := r.db.ExecContext(ctx,
		"UPDATE articles SET "+strings.Join(sets, ", ")+" WHERE id = ? AND author_id = ?", args...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return ownedResult(result)
}

func (r *articleRepo) DeleteOwned(ctx context.Context, authorID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Image metadata cascades with the article; the blobs do not.
	keys, err := queryStrings(ctx, tx,
		`SELECT i.storage_key FROM article_images i
		 JOIN articles a ON a.id = i.article_id
		 WHERE a.id = ? AND a.author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("list image keys: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE id = ? AND author_id = ?", id, authorID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if err := ownedResult(result); err != nil {
		return err
	}

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM file_blobs WHERE storage_key = ?", key); err != nil {
			return fmt.Errorf("delete image blob: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *articleRepo) ToggleStatusOwned(ctx context.Context, authorID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles
		 SET status = CASE status WHEN 'Published' THEN 'Draft' ELSE 'Published' END,
		     updated_at = ?
		 WHERE id = ? AND author_id = ?`,
		time.Now().UTC(), id, authorID,
	)
	if err != nil {
		return fmt.Errorf("toggle article status: %w", err)
	}
	return ownedResult(result)
}

func (r *articleRepo) ListFavourites(ctx context.Context, userID string) ([]domain.Article, error) {
	return r.queryArticles(ctx, articleSelect+`
		JOIN favourites f ON f.article_id = a.id
		WHERE f.user_id = ?
		ORDER BY f.created_at, f.rowid`, userID)
}

func (r *articleRepo) queryArticles(ctx context.Context, query string, args ...any) ([]domain.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// ownedResult maps a zero-row owner-scoped write to ErrNotFoundOrForbidden.
func ownedResult(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFoundOrForbidden
	}
	return nil
}
