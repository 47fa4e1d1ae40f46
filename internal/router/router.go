package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-circulation/internal/handler"
	"github.com/iliyamo/library-circulation/internal/middleware"
	"github.com/iliyamo/library-circulation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers and
// monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the identity endpoints.  Unauthenticated
// operations live under /v1/auth; the provided limiter (may be a
// no-op) shields them from credential stuffing.  The protected /v1/me
// endpoint demonstrates a minimal JWT-guarded route.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limiter != nil {
		g.Use(limiter)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with either a bearer token or a refresh token in the
	// body, so it stays outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterCatalog registers the public, read-only catalog endpoints.
// The cache middleware (may be a no-op) serves repeated browses from
// Redis.
func RegisterCatalog(e *echo.Echo, cat *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	g.GET("/books", cat.ListBooks)
	g.GET("/books/:id", cat.GetBook)
}

// RegisterCirculation registers every authenticated endpoint: the
// member-facing circulation operations and the librarian-only desk,
// ledger and reporting surface.
func RegisterCirculation(e *echo.Echo, circ *handler.CirculationHandler, holds *handler.HoldHandler,
	fines *handler.FineHandler, members *handler.MemberHandler, reports *handler.ReportHandler, jwtSecret string) {

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleLibrarian, model.RoleMember))

	// Circulation: members act as themselves, librarians may pass
	// member_id in the body to serve a member at the desk.
	auth.POST("/books/:id/checkout", circ.Checkout)
	auth.POST("/books/:id/return", circ.Return)
	auth.POST("/loans/:id/renew", circ.Renew)
	auth.GET("/my-loans", circ.MyLoans)

	auth.POST("/books/:id/holds", holds.PlaceHold)
	auth.DELETE("/holds/:id", holds.CancelHold)
	auth.GET("/my-holds", holds.MyHolds)

	auth.GET("/my-fines", fines.MyFines)

	// Librarian-only surface.
	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleLibrarian))

	staff.GET("/loans", circ.ListLoans)
	staff.GET("/books/:id/holds", holds.BookQueue)
	staff.GET("/members", members.ListMembers)
	staff.PATCH("/members/:id/active", members.SetActive)
	staff.GET("/fines", fines.ListFines)
	staff.POST("/fines", fines.AssessFine)
	staff.POST("/fines/:id/pay", fines.PayFine)
	staff.POST("/fines/:id/waive", fines.WaiveFine)
	staff.GET("/reports/summary", reports.Summary)
}
