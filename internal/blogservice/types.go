package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/devnovate/devnovate/internal/common"
)

type Blog struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content         string    `json:"content"`
	Tags            []string  `json:"tags"`
	Status          Status    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	Author          Author    `json:"author"`
	AuthorID        int       `json:"author_id"`
	Views           int       `json:"views"`
	Likes           int       `json:"likes"`
	Comments        int       `json:"comments"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int       `json:"version"`
}

type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"-"`
}

// Actor identifies the caller of an operation. The identity is supplied by
// the authentication layer and trusted as given.
type Actor struct {
	ID        int
	Moderator bool
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m      *BlogModel
	c      *common.Cache
	mb     common.MessageProducer
	logger *slog.Logger
}
