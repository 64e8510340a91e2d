package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/samuelAmenu/vbcs-backend/internal/config"
	"github.com/samuelAmenu/vbcs-backend/internal/handlers"
	"github.com/samuelAmenu/vbcs-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	circleHandler *handlers.CircleHandler,
	safetyHandler *handlers.SafetyHandler,
	lookupHandler *handlers.LookupHandler,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit against OTP abuse
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/request-code", authHandler.RequestCode)
	auth.Post("/verify-code", authHandler.VerifyCode)
	api.Post("/auth/profile", middleware.JWTProtected(cfg), authHandler.UpdateProfile)

	// Guardian circle (JWT required)
	circleGroup := api.Group("/circle", middleware.JWTProtected(cfg))
	circleGroup.Post("/invite", circleHandler.GenerateInvite)
	circleGroup.Post("/join", circleHandler.Join)
	circleGroup.Get("/", circleHandler.GetCircle)
	circleGroup.Post("/reconcile", circleHandler.Reconcile)

	// Safety state machine (JWT required)
	safety := api.Group("/safety", middleware.JWTProtected(cfg))
	safety.Post("/lost-mode", safetyHandler.ToggleLostMode)
	safety.Post("/sos", safetyHandler.TriggerSOS)
	safety.Post("/resolve", safetyHandler.Resolve)

	// Caller-ID lookup — public; reports are anonymous unless a token
	// happens to be present
	lookup := api.Group("/lookup")
	lookup.Get("/call/:number", lookupHandler.CheckNumber)
	lookup.Get("/sms/:number", lookupHandler.CheckNumber)
	lookup.Post("/reports", lookupHandler.SubmitReport)

	// Live presence connection
	api.Use("/ws", wsHandler.Upgrade)
	api.Get("/ws", wsHandler.Serve())
}
