package userservice

import (
	"context"
	"database/sql"
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

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, *mockProducer) {
	db := common.TestDB("file://../../migrations", t)
	producer := &mockProducer{}
	cache := common.NewCache(time.Minute, 5*time.Minute)

	return NewUserService(db, producer, cache), db, producer
}

func TestCreateUser(t *testing.T) {
	s, db, producer := setupTestEnvironment(t)

	ctx := context.Background()

	token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)
	assert.NotNil(t, token)
	assert.Len(t, *token, 26)
	assert.Len(t, producer.events, 1)

	var activated bool
	err = db.QueryRow("SELECT activated FROM users WHERE username = 'testuser'").Scan(&activated)
	assert.NoError(t, err)
	assert.False(t, activated)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "testuser", "other@example.com", "Str0ng#Password")
		assert.ErrorIs(t, err, ErrDuplicateUsername)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "otheruser", "testuser@example.com", "Str0ng#Password")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "newuser", "newuser@example.com", "weak")
		var validationErr common.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestActivateUser(t *testing.T) {
	s, db, _ := setupTestEnvironment(t)

	ctx := context.Background()

	token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	err = s.ActivateUser(ctx, *token)
	assert.NoError(t, err)

	var activated bool
	var id int
	err = db.QueryRow("SELECT id, activated FROM users WHERE username = 'testuser'").Scan(&id, &activated)
	assert.NoError(t, err)
	assert.True(t, activated)

	var permission string
	err = db.QueryRow("SELECT permission FROM user_permissions WHERE user_id = $1", id).Scan(&permission)
	assert.NoError(t, err)
	assert.Equal(t, string(PermissionWriteBlog), permission)

	t.Run("token is burned", func(t *testing.T) {
		err := s.ActivateUser(ctx, *token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		err := s.ActivateUser(ctx, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLoginUser(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)

	ctx := context.Background()

	_, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		authToken, err := s.LoginUser(ctx, "testuser", "Str0ng#Password")
		assert.NoError(t, err)
		assert.NotNil(t, authToken)
		assert.True(t, authToken.Expiry.After(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		authToken, err := s.LoginUser(ctx, "testuser", "Wr0ng#Password")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
		assert.Nil(t, authToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		authToken, err := s.LoginUser(ctx, "nosuchuser", "Str0ng#Password")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
		assert.Nil(t, authToken)
	})

	t.Run("login invalidates the previous token", func(t *testing.T) {
		first, err := s.LoginUser(ctx, "testuser", "Str0ng#Password")
		assert.NoError(t, err)

		_, err = s.LoginUser(ctx, "testuser", "Str0ng#Password")
		assert.NoError(t, err)

		_, err = s.m.getUserByAccessToken(ctx, hashToken(first.Plain))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetUserByAccessToken(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)

	ctx := context.Background()

	token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	err = s.ActivateUser(ctx, *token)
	assert.NoError(t, err)

	authToken, err := s.LoginUser(ctx, "testuser", "Str0ng#Password")
	assert.NoError(t, err)

	user, err := s.GetUserByAccessToken(ctx, authToken.Plain)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.True(t, user.IsActivated())
	assert.True(t, user.HasPermission(PermissionWriteBlog))
	assert.False(t, user.IsModerator())

	t.Run("cached lookup", func(t *testing.T) {
		cached, err := s.GetUserByAccessToken(ctx, authToken.Plain)
		assert.NoError(t, err)
		assert.Equal(t, user, cached)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.GetUserByAccessToken(ctx, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGrantModerator(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)

	ctx := context.Background()

	token, err := s.CreateUser(ctx, "testmod", "testmod@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	err = s.ActivateUser(ctx, *token)
	assert.NoError(t, err)

	authToken, err := s.LoginUser(ctx, "testmod", "Str0ng#Password")
	assert.NoError(t, err)

	user, err := s.GetUserByAccessToken(ctx, authToken.Plain)
	assert.NoError(t, err)
	assert.False(t, user.IsModerator())

	err = s.GrantModerator(ctx, user.ID)
	assert.NoError(t, err)

	// the grant must be visible through the cached lookup path right away
	fresh, err := s.GetUserByAccessToken(ctx, authToken.Plain)
	assert.NoError(t, err)
	assert.True(t, fresh.IsModerator())
}

func TestLogoutUser(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)

	ctx := context.Background()

	token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", "Str0ng#Password")
	assert.NoError(t, err)

	err = s.ActivateUser(ctx, *token)
	assert.NoError(t, err)

	authToken, err := s.LoginUser(ctx, "testuser", "Str0ng#Password")
	assert.NoError(t, err)

	// warm the token cache
	user, err := s.GetUserByAccessToken(ctx, authToken.Plain)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)

	err = s.LogoutUser(ctx, user.ID)
	assert.NoError(t, err)

	// the token must stop resolving immediately, cached or not
	_, err = s.GetUserByAccessToken(ctx, authToken.Plain)
	assert.ErrorIs(t, err, ErrNotFound)
}
