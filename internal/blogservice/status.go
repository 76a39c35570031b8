package blogservice

import (
	"errors"

	"github.com/devnovate/devnovate/internal/common"
)

// Status is the moderation state of a blog post. No other values are ever
// persisted; the blogs table carries a matching CHECK constraint.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusHidden    Status = "hidden"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusHidden:
		return true
	}
	return false
}

// Action is a moderation trigger requested against a blog post.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionHide    Action = "hide"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// transitionRule describes which statuses an action may leave from, where it
// lands, and whether it needs the moderator capability. Unhiding a hidden
// post and re-reviewing a rejected one both reuse approve, so approve leaves
// from pending, rejected and hidden alike.
type transitionRule struct {
	from      []Status
	to        Status
	moderator bool
}

var transitions = map[Action]transitionRule{
	ActionSubmit:  {from: []Status{StatusDraft}, to: StatusPending},
	ActionApprove: {from: []Status{StatusPending, StatusRejected, StatusHidden}, to: StatusPublished, moderator: true},
	ActionReject:  {from: []Status{StatusPending}, to: StatusRejected, moderator: true},
	ActionHide:    {from: []Status{StatusPublished}, to: StatusHidden, moderator: true},
}

// Transition resolves the status that applying action to current yields.
// Authority is checked before reachability: a non-moderator requesting a
// moderator action gets ErrForbidden no matter the current status. Applying
// an action to a status it cannot leave from, including re-applying an
// action to the status it already produced, fails with ErrInvalidTransition.
func Transition(current Status, action Action, actor Actor, authorID int) (Status, error) {
	rule, ok := transitions[action]
	if !ok {
		return "", ErrInvalidTransition
	}

	if rule.moderator {
		if !actor.Moderator {
			return "", common.ErrForbidden
		}
	} else if actor.ID != authorID {
		return "", common.ErrForbidden
	}

	for _, from := range rule.from {
		if from == current {
			return rule.to, nil
		}
	}

	return "", ErrInvalidTransition
}
