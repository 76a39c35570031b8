package commentservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/devnovate/devnovate/internal/common"
)

func NewCommentService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *CommentService {
	return &CommentService{m: newCommentModel(db), c: c, mb: mb, logger: logger}
}

type CreateCommentRequest struct {
	BlogID  int
	Author  AuthorSnapshot
	Content string
}

// CreateComment writes a comment carrying a snapshot of the commenter's name
// and email and bumps the post's comment counter. The post author gets a
// best-effort notification unless they commented on their own post.
func (s *CommentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, req.BlogID, "blog_id")
	validateInt(v, req.Author.ID, "author_id")
	validateContent(v, req.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	ba, err := s.m.getBlogAuthor(ctx, req.BlogID)
	if err != nil {
		return nil, err
	}

	comment := &Comment{
		BlogID:      req.BlogID,
		AuthorID:    req.Author.ID,
		AuthorName:  req.Author.Name,
		AuthorEmail: req.Author.Email,
		Content:     strings.TrimSpace(req.Content),
	}

	if err := s.m.insert(ctx, comment); err != nil {
		return nil, err
	}

	// cached feed pages carry the comment counter
	s.c.Flush()

	if comment.AuthorID != ba.AuthorID {
		s.notify(commentEvent{
			Email:     ba.Email,
			Title:     ba.BlogTitle,
			Commenter: comment.AuthorName,
		})
	}

	return comment, nil
}

// ListComments returns the comments on a blog, newest first.
func (s *CommentService) ListComments(ctx context.Context, blogID int) ([]Comment, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listByBlog(ctx, blogID)
}

type commentEvent struct {
	Email     string `json:"email"`
	Title     string `json:"title"`
	Commenter string `json:"commenter"`
}

// notify is fire-and-forget: a broker failure never fails the comment write.
func (s *CommentService) notify(event commentEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("could not marshal comment event", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.mb.Publish(ctx, data, common.CommentCreatedKey, common.EventExchange); err != nil {
		s.logger.Error("could not publish comment event", slog.String("error", err.Error()))
	}
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.CheckNotBlank(content), "content", "must be provided")
	v.Check(v.CheckStringLength(content, 1, 2000), "content", "must not be more than 2000 characters long")
}
