package likeservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/devnovate/devnovate/internal/common"
)

func newLikeModel(db *sql.DB) *LikeModel {
	return &LikeModel{db: db}
}

func foreignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == name
	}
	return false
}

// toggle flips the like fact for (blogID, userID) and adjusts the counter in
// the same transaction, so the fact write and the counter adjustment commit
// or fail as one unit. The counter itself is moved with a relative SET
// expression, never a value computed in the application, so concurrent
// toggles from different users serialize in the store without lost updates.
func (m *LikeModel) toggle(ctx context.Context, blogID, userID int) (bool, int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, err
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM blog_likes
		WHERE blog_id = $1 AND user_id = $2`, blogID, userID)
	if err != nil {
		_ = tx.Rollback()
		return false, 0, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, 0, err
	}

	if deleted == 1 {
		var likes int
		err = tx.QueryRowContext(ctx, `
			UPDATE blogs
			SET likes = likes - 1
			WHERE id = $1
			RETURNING likes`, blogID).Scan(&likes)
		if err != nil {
			_ = tx.Rollback()
			return false, 0, err
		}

		if err := tx.Commit(); err != nil {
			return false, 0, err
		}

		return false, likes, nil
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO blog_likes (blog_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (blog_id, user_id) DO NOTHING`, blogID, userID)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case foreignKeyError(err, "blog_likes_blog_id_fkey"):
			return false, 0, common.ErrRecordNotFound
		case foreignKeyError(err, "blog_likes_user_id_fkey"):
			return false, 0, common.ErrRecordNotFound
		default:
			return false, 0, err
		}
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, 0, err
	}

	// Neither deleted nor inserted: a concurrent toggle for the same pair
	// committed in between. The caller may retry.
	if inserted == 0 {
		_ = tx.Rollback()
		return false, 0, common.ErrEditConflict
	}

	var likes int
	err = tx.QueryRowContext(ctx, `
		UPDATE blogs
		SET likes = likes + 1
		WHERE id = $1
		RETURNING likes`, blogID).Scan(&likes)
	if err != nil {
		_ = tx.Rollback()
		return false, 0, err
	}

	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	return true, likes, nil
}

// getBlogStatus reads the moderation status of a blog for the published-only
// gate.
func (m *LikeModel) getBlogStatus(ctx context.Context, blogID int) (string, error) {
	var status string
	err := m.db.QueryRowContext(ctx, `
		SELECT status
		FROM blogs
		WHERE id = $1`, blogID).Scan(&status)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", common.ErrRecordNotFound
		default:
			return "", err
		}
	}

	return status, nil
}

// hasLiked reports whether the like fact exists for (blogID, userID).
func (m *LikeModel) hasLiked(ctx context.Context, blogID, userID int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM blog_likes
			WHERE blog_id = $1 AND user_id = $2
		)`, blogID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
