package likeservice

import (
	"database/sql"

	"github.com/devnovate/devnovate/internal/common"
)

type LikeModel struct {
	db *sql.DB
}

type LikeService struct {
	m *LikeModel
	c *common.Cache
}
