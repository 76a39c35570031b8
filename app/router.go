package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/devnovate/devnovate/internal/userservice"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))

	// blog service. httprouter cannot mix static and wildcard segments at
	// the same level, so the public feeds live off /v1/blogs and the
	// moderation surface sits under /v1/moderation.
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requirePermission(app.createBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodGet, "/v1/trending", app.trendingBlogsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requirePermission(app.updateBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/authors/:id/blogs", app.requireAuthUser(app.listBlogsByAuthorHandler))

	// moderation lifecycle
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/submit", app.requirePermission(app.submitBlogHandler, userservice.PermissionWriteBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/approve", app.requirePermission(app.approveBlogHandler, userservice.PermissionModerateBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/reject", app.requirePermission(app.rejectBlogHandler, userservice.PermissionModerateBlog))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/hide", app.requirePermission(app.hideBlogHandler, userservice.PermissionModerateBlog))
	router.HandlerFunc(http.MethodGet, "/v1/moderation/pending", app.requirePermission(app.listPendingBlogsHandler, userservice.PermissionModerateBlog))
	router.HandlerFunc(http.MethodPost, "/v1/moderation/users/:id", app.requirePermission(app.grantModeratorHandler, userservice.PermissionModerateBlog))

	// engagement
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/like", app.requireActivatedUser(app.toggleLikeHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/like", app.requireAuthUser(app.hasLikedHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments", app.requireActivatedUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.listCommentsHandler)

	return app.recoverPanic(app.logRequest(app.rateLimit(app.authenticate(router))))
}
