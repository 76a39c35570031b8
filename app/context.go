package main

import (
	"context"
	"net/http"

	"github.com/devnovate/devnovate/internal/blogservice"
	"github.com/devnovate/devnovate/internal/userservice"
)

type contextKey string

const userContextKey = contextKey("user")

func (app *application) createUserContext(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return &userservice.AnonymousUser
	}
	return user
}

// getActorContext translates the authenticated user into the identity the
// blog service checks permissions against. Anonymous readers become the
// zero actor.
func (app *application) getActorContext(r *http.Request) blogservice.Actor {
	user := app.getUserContext(r)
	if user.IsAnonymous() {
		return blogservice.Actor{}
	}

	return blogservice.Actor{ID: user.ID, Moderator: user.IsModerator()}
}
