// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/handler"
	"github.com/fitforxe/gym-backend/internal/middleware"
)

// Deps carries everything RegisterRoutes mounts.  RateLimit may be nil.
type Deps struct {
	Auth       *handler.AuthHandler
	Members    *handler.MemberHandler
	Payments   *handler.PaymentHandler
	Attendance *handler.AttendanceHandler
	Dashboard  *handler.DashboardHandler
	Profile    *handler.ProfileHandler
	Checkout   *handler.CheckoutHandler
	Webhooks   *handler.WebhookHandler

	Tokens    middleware.TokenValidator
	RateLimit echo.MiddlewareFunc
	DB        handler.Pinger
}

// RegisterRoutes mounts the whole API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	api := e.Group("/api")
	registerAuth(api, d)
	registerWebhooks(api, d.Webhooks)

	// every tenant route runs behind JWTAuth; the owner id comes from the token
	t := api.Group("", middleware.JWTAuth(d.Tokens))
	registerMembers(t, d.Members)
	registerPayments(t, d.Payments, d.Checkout)
	registerAttendance(t, d.Attendance)

	t.GET("/dashboard/stats", d.Dashboard.GetStats)
	t.GET("/membership-pricing", handler.Pricing)
	t.GET("/profile", d.Profile.Get)
	t.PUT("/profile", d.Profile.Update)
}

func registerAuth(api *echo.Group, d Deps) {
	g := api.Group("/auth")
	if d.RateLimit != nil {
		g.Use(d.RateLimit)
	}
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/logout", d.Auth.Logout)
	g.POST("/request-reset", d.Auth.RequestReset)
	g.POST("/reset", d.Auth.Reset)
	g.GET("/me", d.Auth.Me, middleware.JWTAuth(d.Tokens))
}

func registerMembers(g *echo.Group, h *handler.MemberHandler) {
	g.POST("/members", h.Create)
	g.GET("/members", h.List)
	g.GET("/members/:id", h.Get)
	g.PUT("/members/:id", h.Update)
	g.PATCH("/members/:id", h.Update)
	g.DELETE("/members/:id", h.Delete)
}

func registerPayments(g *echo.Group, p *handler.PaymentHandler, co *handler.CheckoutHandler) {
	g.POST("/payments", p.Create)
	g.GET("/payments", p.List)
	g.GET("/payments/member/:member_id", p.ListByMember)

	g.POST("/payments/stripe/checkout", co.StartCard)
	g.GET("/payments/stripe/status/:session_id", co.CardStatus)
	g.POST("/payments/razorpay/order", co.StartOrder)
	g.POST("/payments/razorpay/verify", co.VerifyOrder)
}

func registerAttendance(g *echo.Group, h *handler.AttendanceHandler) {
	g.POST("/attendance/checkin", h.CheckIn)
	g.POST("/attendance/checkout/:member_id", h.CheckOut)
	g.GET("/attendance", h.List)
}

// registerWebhooks mounts the gateway callbacks without authentication;
// each request is authenticated by its signature instead.
func registerWebhooks(api *echo.Group, h *handler.WebhookHandler) {
	api.POST("/webhooks/stripe", h.Stripe)
	api.POST("/webhooks/razorpay", h.Razorpay)
}
