package commentservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/devnovate/devnovate/internal/common"
)

type Comment struct {
	ID     int `json:"id"`
	BlogID int `json:"blog_id"`
	// AuthorName and AuthorEmail are a point-in-time snapshot of the
	// commenter, captured when the comment is written. They deliberately do
	// not reflect later profile changes.
	AuthorID    int       `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"-"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuthorSnapshot carries the commenter identity to capture on the record.
type AuthorSnapshot struct {
	ID    int
	Name  string
	Email string
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m      *CommentModel
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
}
