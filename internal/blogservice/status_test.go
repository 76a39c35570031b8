package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devnovate/devnovate/internal/common"
)

func TestTransition(t *testing.T) {
	const authorID = 1

	author := Actor{ID: authorID}
	otherUser := Actor{ID: 2}
	moderator := Actor{ID: 3, Moderator: true}

	testCases := []struct {
		name        string
		current     Status
		action      Action
		actor       Actor
		expected    Status
		expectedErr error
	}{
		{
			name:     "author submits draft",
			current:  StatusDraft,
			action:   ActionSubmit,
			actor:    author,
			expected: StatusPending,
		},
		{
			name:        "other user submits draft",
			current:     StatusDraft,
			action:      ActionSubmit,
			actor:       otherUser,
			expectedErr: common.ErrForbidden,
		},
		{
			name:        "author submits pending",
			current:     StatusPending,
			action:      ActionSubmit,
			actor:       author,
			expectedErr: ErrInvalidTransition,
		},
		{
			name:     "moderator approves pending",
			current:  StatusPending,
			action:   ActionApprove,
			actor:    moderator,
			expected: StatusPublished,
		},
		{
			name:     "moderator re-approves rejected",
			current:  StatusRejected,
			action:   ActionApprove,
			actor:    moderator,
			expected: StatusPublished,
		},
		{
			name:     "moderator unhides hidden",
			current:  StatusHidden,
			action:   ActionApprove,
			actor:    moderator,
			expected: StatusPublished,
		},
		{
			name:        "moderator re-approves published",
			current:     StatusPublished,
			action:      ActionApprove,
			actor:       moderator,
			expectedErr: ErrInvalidTransition,
		},
		{
			name:        "author approves own pending",
			current:     StatusPending,
			action:      ActionApprove,
			actor:       author,
			expectedErr: common.ErrForbidden,
		},
		{
			name:     "moderator rejects pending",
			current:  StatusPending,
			action:   ActionReject,
			actor:    moderator,
			expected: StatusRejected,
		},
		{
			name:        "moderator rejects draft",
			current:     StatusDraft,
			action:      ActionReject,
			actor:       moderator,
			expectedErr: ErrInvalidTransition,
		},
		{
			name:        "moderator rejects published",
			current:     StatusPublished,
			action:      ActionReject,
			actor:       moderator,
			expectedErr: ErrInvalidTransition,
		},
		{
			name:     "moderator hides published",
			current:  StatusPublished,
			action:   ActionHide,
			actor:    moderator,
			expected: StatusHidden,
		},
		{
			name:        "moderator hides hidden again",
			current:     StatusHidden,
			action:      ActionHide,
			actor:       moderator,
			expectedErr: ErrInvalidTransition,
		},
		{
			name:        "author hides own published",
			current:     StatusPublished,
			action:      ActionHide,
			actor:       author,
			expectedErr: common.ErrForbidden,
		},
		{
			// authority failure must win even when the transition would be
			// invalid anyway
			name:        "non-moderator rejects draft",
			current:     StatusDraft,
			action:      ActionReject,
			actor:       otherUser,
			expectedErr: common.ErrForbidden,
		},
		{
			name:        "unknown action",
			current:     StatusDraft,
			action:      Action("archive"),
			actor:       moderator,
			expectedErr: ErrInvalidTransition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.current, tc.action, tc.actor, authorID)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Empty(t, next)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, next)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusHidden} {
		assert.True(t, s.Valid())
	}

	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}
