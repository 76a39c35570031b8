package blogservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/devnovate/devnovate/internal/common"
)

func NewBlogService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c, mb: mb, logger: logger}
}

type CreateBlogRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	AuthorID int      `json:"author_id"`
	// Status is the author's intended initial state: draft to keep working
	// on the post, pending to submit it for review.
	Status Status `json:"status"`
}

// CreateBlog creates a new blog post in draft or pending state.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateTags(v, req.Tags)
	validateInt(v, req.AuthorID, "author_id")
	validateInitialStatus(v, req.Status)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.insert(ctx, req.Title, sanitizeMarkdown(req.Content), req.Tags, req.AuthorID, req.Status)
}

// GetBlog returns a single blog post. Reading a published post counts a view
// regardless of requester identity; an unpublished post is only visible to
// its author or a moderator and never counts views.
func (s *BlogService) GetBlog(ctx context.Context, id int, actor Actor) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if blog.Status != StatusPublished {
		if actor.ID != blog.AuthorID && !actor.Moderator {
			return nil, common.ErrForbidden
		}
		return blog, nil
	}

	views, counted, err := s.m.incrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	if counted {
		blog.Views = views
	}

	return blog, nil
}

type UpdateBlogRequest struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateBlog edits title, content and tags of the actor's own post. Editing
// never changes the moderation status: a rejected post stays rejected until
// a moderator re-approves it.
func (s *BlogService) UpdateBlog(ctx context.Context, req *UpdateBlogRequest, actor Actor) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, req.ID, "id")
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateTags(v, req.Tags)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog, err := s.m.getByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if blog.AuthorID != actor.ID {
		return nil, common.ErrForbidden
	}

	blog.Title = req.Title
	blog.Content = sanitizeMarkdown(req.Content)
	blog.Tags = req.Tags

	if err := s.m.updateContent(ctx, blog); err != nil {
		return nil, err
	}

	s.c.Flush()

	return blog, nil
}

// SubmitBlog moves the actor's own draft into the review queue.
func (s *BlogService) SubmitBlog(ctx context.Context, id int, actor Actor) error {
	return s.transition(ctx, id, ActionSubmit, actor, nil)
}

// ApproveBlog publishes a pending post. It is also how a moderator unhides a
// hidden post or re-approves a rejected one; any stored rejection reason is
// cleared. The author is notified best-effort.
func (s *BlogService) ApproveBlog(ctx context.Context, id int, actor Actor) error {
	return s.transition(ctx, id, ActionApprove, actor, nil)
}

// RejectBlog rejects a pending post with an optional free-text reason. The
// reason, when given, is persisted and included in the author notification.
func (s *BlogService) RejectBlog(ctx context.Context, id int, actor Actor, reason *string) error {
	v := common.NewValidator()
	validateReason(v, reason)
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.transition(ctx, id, ActionReject, actor, reason)
}

// HideBlog takes a published post off the public site without notifying the
// author.
func (s *BlogService) HideBlog(ctx context.Context, id int, actor Actor) error {
	return s.transition(ctx, id, ActionHide, actor, nil)
}

func (s *BlogService) transition(ctx context.Context, id int, action Action, actor Actor, reason *string) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		return err
	}

	next, err := Transition(blog.Status, action, actor, blog.AuthorID)
	if err != nil {
		return err
	}

	// The status guard re-checks the current state inside the update, so a
	// transition raced by another one fails with an edit conflict instead of
	// applying from a stale state.
	if err := s.m.setStatus(ctx, id, blog.Status, next, reason); err != nil {
		return err
	}

	s.c.Flush()

	switch action {
	case ActionApprove:
		s.notify(common.BlogApprovedKey, blogEvent{Email: blog.Author.Email, Title: blog.Title})
	case ActionReject:
		event := blogEvent{Email: blog.Author.Email, Title: blog.Title}
		if reason != nil {
			event.Reason = *reason
		}
		s.notify(common.BlogRejectedKey, event)
	}

	return nil
}

// DeleteBlog permanently removes a post. The owning author may delete their
// own post in any state; a moderator may delete any post.
func (s *BlogService) DeleteBlog(ctx context.Context, id int, actor Actor) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	blog, err := s.m.getByID(ctx, id)
	if err != nil {
		return err
	}

	if blog.AuthorID != actor.ID && !actor.Moderator {
		return common.ErrForbidden
	}

	if err := s.m.deleteByID(ctx, id); err != nil {
		return err
	}

	s.c.Flush()

	return nil
}

// ListPublishedBlogs returns published posts, newest first. Default limit is
// 10 and default offset is 0. Pages are served from the cache when possible.
func (s *BlogService) ListPublishedBlogs(ctx context.Context, limit, offset *int) ([]Blog, error) {
	l, o := normalizePage(limit, offset)

	key := common.CacheKeyPublishedBlogs(l, o)
	if cached, ok := s.c.Get(key); ok {
		return cached.([]Blog), nil
	}

	blogs, err := s.m.listByStatus(ctx, StatusPublished, l, o)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, blogs)

	return blogs, nil
}

// SearchBlogs searches published posts by title substring.
func (s *BlogService) SearchBlogs(ctx context.Context, title string, limit, offset *int) ([]Blog, error) {
	v := common.NewValidator()
	v.Check(v.CheckNotBlank(title), "q", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	l, o := normalizePage(limit, offset)

	return s.m.searchPublished(ctx, title, l, o)
}

// ListBlogsByAuthor returns all posts of an author in any state. Only the
// author themselves or a moderator may see the unpublished ones, so the
// whole listing is restricted to them.
func (s *BlogService) ListBlogsByAuthor(ctx context.Context, authorID int, actor Actor) ([]Blog, error) {
	v := common.NewValidator()
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if actor.ID != authorID && !actor.Moderator {
		return nil, common.ErrForbidden
	}

	return s.m.listByAuthor(ctx, authorID)
}

// ListPendingBlogs returns the moderation queue, newest submissions first.
func (s *BlogService) ListPendingBlogs(ctx context.Context, actor Actor, limit, offset *int) ([]Blog, error) {
	if !actor.Moderator {
		return nil, common.ErrForbidden
	}

	l, o := normalizePage(limit, offset)

	return s.m.listByStatus(ctx, StatusPending, l, o)
}

// ListTrendingBlogs returns published posts ranked by engagement.
func (s *BlogService) ListTrendingBlogs(ctx context.Context, limit *int) ([]Blog, error) {
	l, _ := normalizePage(limit, nil)

	key := common.CacheKeyTrendingBlogs(l)
	if cached, ok := s.c.Get(key); ok {
		return cached.([]Blog), nil
	}

	blogs, err := s.m.listTrending(ctx, l)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, blogs, time.Minute)

	return blogs, nil
}

func normalizePage(limit, offset *int) (int, int) {
	l, o := 10, 0
	if limit != nil && *limit >= 1 {
		l = *limit
	}
	if offset != nil && *offset > 0 {
		o = *offset
	}
	return l, o
}

type blogEvent struct {
	Email  string `json:"email"`
	Title  string `json:"title"`
	Reason string `json:"reason,omitempty"`
}

// notify publishes a fire-and-forget event. A broker failure is logged and
// never surfaces to the caller of the triggering operation, and a detached
// context keeps caller cancellation from dropping the event after the store
// write committed.
func (s *BlogService) notify(key common.BindingKey, event blogEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("could not marshal notification event", slog.String("key", string(key)), slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.mb.Publish(ctx, data, key, common.EventExchange); err != nil {
		s.logger.Error("could not publish notification event", slog.String("key", string(key)), slog.String("error", err.Error()))
	}
}
