package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/devnovate/devnovate/internal/common"
)

var (
	ErrAuthorForeignKey = errors.New("author_id does not exist")
)

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *BlogModel) insert(ctx context.Context, title, content string, tags []string, authorID int, status Status) (*Blog, error) {
	query := `
		INSERT INTO blogs (title, content, tags, author_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, views, likes, comments, created_at, updated_at, version`

	blog := Blog{
		Title:    title,
		Content:  content,
		Tags:     tags,
		AuthorID: authorID,
	}

	err := m.db.QueryRowContext(ctx, query, title, content, pq.Array(tags), authorID, string(status)).
		Scan(&blog.ID, &blog.Status, &blog.Views, &blog.Likes, &blog.Comments, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case ForeignKeyError(err, "blogs_author_id_fkey"):
			return nil, ErrAuthorForeignKey
		default:
			return nil, err
		}
	}

	return &blog, nil
}

// getByID returns a blog by its ID joining the users table for the author
// name and notification address.
func (m *BlogModel) getByID(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT b.id, b.title, b.content, b.tags, b.status, b.rejection_reason, b.author_id, b.views, b.likes, b.comments, b.created_at, b.updated_at, b.version, u.username, u.email
		FROM blogs b
		JOIN users u ON b.author_id = u.id
		WHERE b.id = $1`

	row := m.db.QueryRowContext(ctx, query, id)

	var blog Blog
	err := row.Scan(&blog.ID, &blog.Title, &blog.Content, pq.Array(&blog.Tags), &blog.Status, &blog.RejectionReason, &blog.AuthorID, &blog.Views, &blog.Likes, &blog.Comments, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.Author.Username, &blog.Author.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	blog.Author.ID = blog.AuthorID

	return &blog, nil
}

// updateContent edits title and content only. The author and version guards
// make the write conditional so a concurrent edit surfaces as a conflict
// instead of a silent overwrite. The status column is untouched.
func (m *BlogModel) updateContent(ctx context.Context, blog *Blog) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, tags = $3, updated_at = NOW(), version = version + 1
		WHERE id = $4 AND author_id = $5 AND version = $6
		RETURNING version, updated_at`

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, pq.Array(blog.Tags), blog.ID, blog.AuthorID, blog.Version).Scan(&blog.Version, &blog.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrEditConflict
		default:
			return err
		}
	}

	return nil
}

// setStatus applies a status transition as a single conditional update. The
// from guard makes the write a compare-and-swap on the status column: if a
// concurrent transition got there first no row matches and the caller gets
// an edit conflict rather than a lost update. The rejection reason is
// stored on reject and cleared on every other transition.
func (m *BlogModel) setStatus(ctx context.Context, id int, from, to Status, reason *string) error {
	query := `
		UPDATE blogs
		SET status = $1, rejection_reason = $2, updated_at = NOW(), version = version + 1
		WHERE id = $3 AND status = $4`

	res, err := m.db.ExecContext(ctx, query, string(to), reason, id, string(from))
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrEditConflict
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// deleteByID removes the blog record. Like facts and comments go with it via
// foreign key cascade, which keeps the counter invariants trivially true.
func (m *BlogModel) deleteByID(ctx context.Context, id int) error {
	query := `
		DELETE FROM blogs
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return common.ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

// incrementViews bumps the raw hit counter for a published post and returns
// the new value. The status guard means a post hidden by a concurrent
// moderator action is never counted; zero rows is not an error in that case.
func (m *BlogModel) incrementViews(ctx context.Context, id int) (int, bool, error) {
	query := `
		UPDATE blogs
		SET views = views + 1
		WHERE id = $1 AND status = 'published'
		RETURNING views`

	var views int
	err := m.db.QueryRowContext(ctx, query, id).Scan(&views)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, false, nil
		default:
			return 0, false, err
		}
	}

	return views, true, nil
}

const blogColumns = `
	SELECT b.id, b.title, b.content, b.tags, b.status, b.rejection_reason, b.author_id, b.views, b.likes, b.comments, b.created_at, b.updated_at, b.version, u.username
	FROM blogs b
	JOIN users u ON b.author_id = u.id`

func (m *BlogModel) queryBlogs(ctx context.Context, query string, args ...any) ([]Blog, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []Blog
	for rows.Next() {
		var blog Blog
		err := rows.Scan(&blog.ID, &blog.Title, &blog.Content, pq.Array(&blog.Tags), &blog.Status, &blog.RejectionReason, &blog.AuthorID, &blog.Views, &blog.Likes, &blog.Comments, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.Author.Username)
		if err != nil {
			return nil, err
		}
		blog.Author.ID = blog.AuthorID
		blogs = append(blogs, blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}

// listByStatus returns blogs in the given status, newest first.
func (m *BlogModel) listByStatus(ctx context.Context, status Status, limit, offset int) ([]Blog, error) {
	query := blogColumns + `
		WHERE b.status = $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`

	return m.queryBlogs(ctx, query, string(status), limit, offset)
}

// searchPublished matches published blogs by title substring.
func (m *BlogModel) searchPublished(ctx context.Context, title string, limit, offset int) ([]Blog, error) {
	query := blogColumns + `
		WHERE b.status = 'published' AND b.title ILIKE $1
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`

	return m.queryBlogs(ctx, query, "%"+title+"%", limit, offset)
}

// listByAuthor returns every blog of an author regardless of status, for the
// author dashboard.
func (m *BlogModel) listByAuthor(ctx context.Context, authorID int) ([]Blog, error) {
	query := blogColumns + `
		WHERE b.author_id = $1
		ORDER BY b.created_at DESC`

	blogs, err := m.queryBlogs(ctx, query, authorID)
	if err != nil {
		return nil, err
	}

	if len(blogs) == 0 {
		return nil, common.ErrRecordNotFound
	}

	return blogs, nil
}

// listTrending ranks published blogs by a weighted engagement score. Likes
// weigh more than comments, comments more than raw views.
func (m *BlogModel) listTrending(ctx context.Context, limit int) ([]Blog, error) {
	query := blogColumns + `
		WHERE b.status = 'published'
		ORDER BY (b.likes * 4 + b.comments * 2 + b.views) DESC, b.created_at DESC
		LIMIT $1`

	return m.queryBlogs(ctx, query, limit)
}
