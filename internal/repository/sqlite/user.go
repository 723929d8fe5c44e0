package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/quill/internal/domain"
)

// userRepo implements domain.UserRepository using SQLite.
type userRepo struct {
	db *sql.DB
}

const userColumns = `id, name, email, username, password_hash, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.Name, user.Email, user.Username, user.PasswordHash, string(user.Role), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	if err := r.loadSets(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? OR username = ? LIMIT 1`,
		identifier, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by identifier: %w", err)
	}
	if err := r.loadSets(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, username = ?, password_hash = ?, role = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name, user.Email, user.Username, user.PasswordHash, string(user.Role), now, user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}

func (r *userRepo) AddOwnedArticle(ctx context.Context, userID, articleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_articles (user_id, article_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID, time.Now().UTC(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("add owned article: %w", err)
	}
	return nil
}

func (r *userRepo) RemoveOwnedArticle(ctx context.Context, userID, articleID string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM user_articles WHERE user_id = ? AND article_id = ?", userID, articleID,
	); err != nil {
		return fmt.Errorf("remove owned article: %w", err)
	}
	return nil
}

func (r *userRepo) ToggleFavourite(ctx context.Context, userID, articleID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, "SELECT 1 FROM users WHERE id = ?", userID); err != nil {
		return false, err
	}
	if err := requireRow(ctx, tx, "SELECT 1 FROM articles WHERE id = ?", articleID); err != nil {
		return false, err
	}

	added, err := toggleMembership(ctx, tx,
		"DELETE FROM favourites WHERE user_id = ? AND article_id = ?",
		"INSERT INTO favourites (user_id, article_id, created_at) VALUES (?, ?, ?)",
		userID, articleID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle favourite: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return added, nil
}

// loadSets fills the favourites and authored-article lists.
func (r *userRepo) loadSets(ctx context.Context, user *domain.User) error {
	favs, err := queryStrings(ctx, r.db,
		"SELECT article_id FROM favourites WHERE user_id = ? ORDER BY created_at, rowid", user.ID)
	if err != nil {
		return fmt.Errorf("load favourites: %w", err)
	}
	owned, err := queryStrings(ctx, r.db,
		"SELECT article_id FROM user_articles WHERE user_id = ? ORDER BY created_at, rowid", user.ID)
	if err != nil {
		return fmt.Errorf("load owned articles: %w", err)
	}
	user.Favourites = favs
	user.Articles = owned
	return nil
}
