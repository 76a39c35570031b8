package likeservice

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devnovate/devnovate/internal/common"
)

func setupTestEnvironment(t *testing.T) (*LikeService, *sql.DB, int, int) {
	db := common.TestDB("file://../../migrations", t)

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

	return NewLikeService(db, common.NewCache(5*time.Minute, 10*time.Minute)), db, blogID, authorID
}

func createTestUser(t *testing.T, db *sql.DB, n int) int {
	var id int
	err := db.QueryRow(`
		INSERT INTO users (username, email, password, activated)
		VALUES ($1, $2, $3, true)
		RETURNING id`, fmt.Sprintf("testuser%d", n), fmt.Sprintf("testuser%d@example.com", n), []byte("x")).Scan(&id)
	assert.NoError(t, err)
	return id
}

func countLikeFacts(t *testing.T, db *sql.DB, blogID int) int {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM blog_likes WHERE blog_id = $1", blogID).Scan(&count)
	assert.NoError(t, err)
	return count
}

func readLikeCounter(t *testing.T, db *sql.DB, blogID int) int {
	var likes int
	err := db.QueryRow("SELECT likes FROM blogs WHERE id = $1", blogID).Scan(&likes)
	assert.NoError(t, err)
	return likes
}

func TestToggleLikeRoundTrip(t *testing.T) {
	s, db, blogID, _ := setupTestEnvironment(t)
	userID := createTestUser(t, db, 1)

	ctx := context.Background()

	liked, likes, err := s.ToggleLike(ctx, blogID, userID)
	assert.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)
	assert.Equal(t, 1, countLikeFacts(t, db, blogID))

	has, err := s.HasLiked(ctx, blogID, userID)
	assert.NoError(t, err)
	assert.True(t, has)

	// second toggle un-likes and restores both the fact set and the counter
	liked, likes, err = s.ToggleLike(ctx, blogID, userID)
	assert.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likes)
	assert.Equal(t, 0, countLikeFacts(t, db, blogID))

	has, err = s.HasLiked(ctx, blogID, userID)
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestToggleLikeCounterMatchesFacts(t *testing.T) {
	s, db, blogID, _ := setupTestEnvironment(t)

	ctx := context.Background()

	var userIDs []int
	for i := 1; i <= 5; i++ {
		userIDs = append(userIDs, createTestUser(t, db, i))
	}

	// an arbitrary toggle sequence: every user likes, two of them un-like
	for _, id := range userIDs {
		_, _, err := s.ToggleLike(ctx, blogID, id)
		assert.NoError(t, err)
	}
	for _, id := range userIDs[:2] {
		_, _, err := s.ToggleLike(ctx, blogID, id)
		assert.NoError(t, err)
	}

	facts := countLikeFacts(t, db, blogID)
	assert.Equal(t, 3, facts)
	assert.Equal(t, facts, readLikeCounter(t, db, blogID))
}

func TestToggleLikeConcurrent(t *testing.T) {
	s, db, blogID, _ := setupTestEnvironment(t)

	ctx := context.Background()

	const users = 8
	var userIDs []int
	for i := 1; i <= users; i++ {
		userIDs = append(userIDs, createTestUser(t, db, i))
	}

	var wg sync.WaitGroup
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, _, err := s.ToggleLike(ctx, blogID, userID)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	facts := countLikeFacts(t, db, blogID)
	assert.Equal(t, users, facts)
	assert.Equal(t, facts, readLikeCounter(t, db, blogID))
}

func TestToggleLikeUnpublished(t *testing.T) {
	s, db, blogID, authorID := setupTestEnvironment(t)

	ctx := context.Background()

	for _, status := range []string{"draft", "pending", "rejected", "hidden"} {
		t.Run(status, func(t *testing.T) {
			_, err := db.Exec("UPDATE blogs SET status = $1 WHERE id = $2", status, blogID)
			assert.NoError(t, err)

			_, _, err = s.ToggleLike(ctx, blogID, authorID)
			assert.ErrorIs(t, err, common.ErrRecordNotFound)
			assert.Equal(t, 0, countLikeFacts(t, db, blogID))
		})
	}
}

func TestToggleLikeEvictsCachedFeeds(t *testing.T) {
	s, db, blogID, _ := setupTestEnvironment(t)
	userID := createTestUser(t, db, 1)

	s.c.Set(common.CacheKeyPublishedBlogs(20, 0), "stale")
	s.c.Set(common.CacheKeyTrendingBlogs(10), "stale")

	_, _, err := s.ToggleLike(context.Background(), blogID, userID)
	assert.NoError(t, err)

	_, found := s.c.Get(common.CacheKeyPublishedBlogs(20, 0))
	assert.False(t, found)
	_, found = s.c.Get(common.CacheKeyTrendingBlogs(10))
	assert.False(t, found)
}

func TestToggleLikeMissingBlog(t *testing.T) {
	s, db, _, _ := setupTestEnvironment(t)
	userID := createTestUser(t, db, 1)

	_, _, err := s.ToggleLike(context.Background(), 999, userID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
