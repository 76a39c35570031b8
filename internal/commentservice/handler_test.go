package commentservice

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devnovate/devnovate/internal/common"
)

type mockProducer struct {
	mu     sync.Mutex
	events [][]byte
}

func (p *mockProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, msg)
	return nil
}

func (p *mockProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func setupTestEnvironment(t *testing.T) (*CommentService, *sql.DB, *mockProducer, int, int) {
	db := common.TestDB("file://../../migrations", t)
	producer := &mockProducer{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var authorID int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password, activated)
		VALUES ('testauthor', 'testauthor@example.com', $1, true)
		RETURNING id`, []byte("x")).Scan(&authorID)
	assert.NoError(t, err)

	var blogID int
	err = db.QueryRow(`
		INSERT INTO blogs (title, content, author_id, status)
		VALUES ('Test Blog', 'This is a test blog.', $1, 'published')
		RETURNING id`, authorID).Scan(&blogID)
	assert.NoError(t, err)

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	return NewCommentService(db, cache, producer, logger), db, producer, blogID, authorID
}

func createTestCommenter(t *testing.T, db *sql.DB) AuthorSnapshot {
	var id int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password, activated)
		VALUES ('testcommenter', 'testcommenter@example.com', $1, true)
		RETURNING id`, []byte("x")).Scan(&id)
	assert.NoError(t, err)

	return AuthorSnapshot{ID: id, Name: "testcommenter", Email: "testcommenter@example.com"}
}

func readCommentCounter(t *testing.T, db *sql.DB, blogID int) int {
	var comments int
	err := db.QueryRow("SELECT comments FROM blogs WHERE id = $1", blogID).Scan(&comments)
	assert.NoError(t, err)
	return comments
}

func TestCreateComment(t *testing.T) {
	s, db, producer, blogID, _ := setupTestEnvironment(t)
	commenter := createTestCommenter(t, db)

	ctx := context.Background()

	comment, err := s.CreateComment(ctx, &CreateCommentRequest{
		BlogID:  blogID,
		Author:  commenter,
		Content: "nice post",
	})
	assert.NoError(t, err)
	assert.NotZero(t, comment.ID)
	assert.Equal(t, "nice post", comment.Content)
	assert.Equal(t, commenter.Name, comment.AuthorName)
	assert.Equal(t, commenter.Email, comment.AuthorEmail)

	assert.Equal(t, 1, readCommentCounter(t, db, blogID))

	var factCount int
	err = db.QueryRow("SELECT COUNT(*) FROM comments WHERE blog_id = $1", blogID).Scan(&factCount)
	assert.NoError(t, err)
	assert.Equal(t, 1, factCount)

	assert.Equal(t, 1, producer.count())
}

func TestCreateCommentValidation(t *testing.T) {
	s, db, _, blogID, _ := setupTestEnvironment(t)
	commenter := createTestCommenter(t, db)

	ctx := context.Background()

	testCases := []struct {
		name        string
		req         *CreateCommentRequest
		expectedErr error
	}{
		{
			name: "empty content",
			req: &CreateCommentRequest{
				BlogID: blogID,
				Author: commenter,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name: "whitespace content",
			req: &CreateCommentRequest{
				BlogID:  blogID,
				Author:  commenter,
				Content: "  \t\n ",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name: "missing blog",
			req: &CreateCommentRequest{
				BlogID:  999,
				Author:  commenter,
				Content: "hello",
			},
			expectedErr: common.ErrRecordNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			comment, err := s.CreateComment(ctx, tc.req)
			assert.Equal(t, tc.expectedErr, err)
			assert.Nil(t, comment)
			assert.Equal(t, 0, readCommentCounter(t, db, blogID))
		})
	}
}

func TestCreateCommentOwnPostSkipsNotification(t *testing.T) {
	s, _, producer, blogID, authorID := setupTestEnvironment(t)

	_, err := s.CreateComment(context.Background(), &CreateCommentRequest{
		BlogID:  blogID,
		Author:  AuthorSnapshot{ID: authorID, Name: "testauthor", Email: "testauthor@example.com"},
		Content: "replying on my own post",
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, producer.count())
}

func TestCreateCommentEvictsCachedFeeds(t *testing.T) {
	s, db, _, blogID, _ := setupTestEnvironment(t)
	commenter := createTestCommenter(t, db)

	s.c.Set(common.CacheKeyPublishedBlogs(20, 0), "stale")
	s.c.Set(common.CacheKeyTrendingBlogs(10), "stale")

	_, err := s.CreateComment(context.Background(), &CreateCommentRequest{
		BlogID:  blogID,
		Author:  commenter,
		Content: "hello",
	})
	assert.NoError(t, err)

	_, found := s.c.Get(common.CacheKeyPublishedBlogs(20, 0))
	assert.False(t, found)
	_, found = s.c.Get(common.CacheKeyTrendingBlogs(10))
	assert.False(t, found)
}

func TestListCommentsNewestFirst(t *testing.T) {
	s, db, _, blogID, _ := setupTestEnvironment(t)
	commenter := createTestCommenter(t, db)

	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := s.CreateComment(ctx, &CreateCommentRequest{
			BlogID:  blogID,
			Author:  commenter,
			Content: content,
		})
		assert.NoError(t, err)
	}

	comments, err := s.ListComments(ctx, blogID)
	assert.NoError(t, err)
	assert.Len(t, comments, 3)
	assert.Equal(t, "third", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	assert.Equal(t, "first", comments[2].Content)

	assert.Equal(t, 3, readCommentCounter(t, db, blogID))
}

func TestCommentSnapshotIsPointInTime(t *testing.T) {
	s, db, _, blogID, _ := setupTestEnvironment(t)
	commenter := createTestCommenter(t, db)

	ctx := context.Background()

	_, err := s.CreateComment(ctx, &CreateCommentRequest{
		BlogID:  blogID,
		Author:  commenter,
		Content: "hello",
	})
	assert.NoError(t, err)

	// a later profile change must not leak into the stored snapshot
	_, err = db.Exec("UPDATE users SET username = 'renamed', email = 'renamed@example.com' WHERE id = $1", commenter.ID)
	assert.NoError(t, err)

	comments, err := s.ListComments(ctx, blogID)
	assert.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Equal(t, "testcommenter", comments[0].AuthorName)
	assert.Equal(t, "testcommenter@example.com", comments[0].AuthorEmail)
}
