// Package router wires handlers, identity and role gates onto the Echo
// instance. Permitted role sets are fixed here, per route group, so the
// authorization surface is readable in one place.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/expohub/expo-reservation/internal/handler"
	"github.com/expohub/expo-reservation/internal/middleware"
	"github.com/expohub/expo-reservation/internal/model"
)

// RegisterRoutes registers routes that carry no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the token endpoints. Register, login and the
// refresh pair are open; logout and me run behind the identity gate.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	auth := e.Group("/v1/auth", middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)

	me := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints behind
// the response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/expos/published", p.ListPublished)
	g.GET("/expos/:id/available", p.Available)
	g.GET("/expos/:id/booths", p.ListBooths)
	g.GET("/expos/:id/sessions", p.ListSessions)
}

// RegisterOrganizer registers the expo management surface. Every route
// requires ORGANIZER or ADMIN; per-expo ownership is enforced in the
// handlers since the role gate cannot know who owns which expo.
func RegisterOrganizer(e *echo.Echo, h *handler.ExpoHandler, app *handler.ApplicationHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin),
	)
	g.POST("/expos", h.CreateExpo)
	g.GET("/expos", h.ListMyExpos)
	g.GET("/expos/:id", h.GetExpo)
	g.PUT("/expos/:id", h.UpdateExpo)
	g.DELETE("/expos/:id", h.DeleteExpo)
	g.PUT("/expos/:id/publish", h.Publish)
	g.PUT("/expos/:id/unpublish", h.Unpublish)
	g.PUT("/expos/:id/complete", h.Complete)
	g.POST("/expos/:id/booths", h.CreateBooth)
	g.POST("/expos/:id/sessions", h.CreateSession)
	g.GET("/expos/:id/reservations", h.ListExpoReservations)
	g.GET("/expos/:id/analytics", h.ExpoAnalytics)
	g.GET("/expos/:id/applications", app.ListExpoApplications)
	g.PUT("/applications/:id/decide", app.Decide)
}

// RegisterBooking registers the reservation surface. Booth slots are
// claimed by exhibitors, session seats by attendees; cancellation and
// lookups are open to every authenticated role, with ownership decided
// in the booking layer. The limiter shields the contended mutation
// endpoints.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, app *handler.ApplicationHandler,
	jwtSecret string, limiter echo.MiddlewareFunc) {
	exhibitor := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleExhibitor),
		limiter,
	)
	exhibitor.POST("/booths/:id/book", b.BookBooth)
	exhibitor.POST("/expos/:id/apply", app.Apply)

	attendee := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAttendee),
		limiter,
	)
	attendee.POST("/sessions/:id/register", b.RegisterSession)

	any := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	any.POST("/reservations/:id/cancel", b.Cancel, limiter)
	any.GET("/reservations/:id", b.GetReservation)
	any.GET("/my-reservations", b.ListMyReservations)
	any.GET("/applications/:id", app.GetApplication)
}
