package likeservice

import (
	"context"
	"database/sql"

	"github.com/devnovate/devnovate/internal/common"
)

func NewLikeService(db *sql.DB, c *common.Cache) *LikeService {
	return &LikeService{m: newLikeModel(db), c: c}
}

// ToggleLike flips the like of userID on blogID and returns the new liked
// state together with the post's like counter. Calling it twice returns both
// to their original values; it is not an idempotent "set like". Only
// published posts can be liked.
func (s *LikeService) ToggleLike(ctx context.Context, blogID, userID int) (bool, int, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return false, 0, v.ValidationError()
	}

	status, err := s.m.getBlogStatus(ctx, blogID)
	if err != nil {
		return false, 0, err
	}

	if status != "published" {
		return false, 0, common.ErrRecordNotFound
	}

	liked, likes, err := s.m.toggle(ctx, blogID, userID)
	if err != nil {
		return false, 0, err
	}

	// cached feed pages carry the like counter
	s.c.Flush()

	return liked, likes, nil
}

// HasLiked reports whether userID currently likes blogID.
func (s *LikeService) HasLiked(ctx context.Context, blogID, userID int) (bool, error) {
	v := common.NewValidator()
	validateInt(v, blogID, "blog_id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	return s.m.hasLiked(ctx, blogID, userID)
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
