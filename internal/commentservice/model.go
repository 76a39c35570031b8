package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/devnovate/devnovate/internal/common"
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

func foreignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == name
	}
	return false
}

// blogAuthor holds what the notification side effect needs to know about the
// post a comment landed on.
type blogAuthor struct {
	BlogTitle string
	AuthorID  int
	Email     string
}

func (m *CommentModel) getBlogAuthor(ctx context.Context, blogID int) (*blogAuthor, error) {
	query := `
		SELECT b.title, b.author_id, u.email
		FROM blogs b
		JOIN users u ON b.author_id = u.id
		WHERE b.id = $1`

	var ba blogAuthor
	err := m.db.QueryRowContext(ctx, query, blogID).Scan(&ba.BlogTitle, &ba.AuthorID, &ba.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &ba, nil
}

// insert writes the comment fact and increments the post counter in one
// transaction. The counter only ever moves together with a successfully
// written fact, and only upward: comment deletion is unsupported.
func (m *CommentModel) insert(ctx context.Context, comment *Comment) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO comments (blog_id, author_id, author_name, author_email, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query, comment.BlogID, comment.AuthorID, comment.AuthorName, comment.AuthorEmail, comment.Content).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		switch {
		case foreignKeyError(err, "comments_blog_id_fkey"):
			return common.ErrRecordNotFound
		case foreignKeyError(err, "comments_author_id_fkey"):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE blogs
		SET comments = comments + 1
		WHERE id = $1`, comment.BlogID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if rows != 1 {
		_ = tx.Rollback()
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return tx.Commit()
}

// listByBlog returns the comments of a blog, newest first.
func (m *CommentModel) listByBlog(ctx context.Context, blogID int) ([]Comment, error) {
	query := `
		SELECT id, blog_id, author_id, author_name, author_email, content, created_at
		FROM comments
		WHERE blog_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := m.db.QueryContext(ctx, query, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
