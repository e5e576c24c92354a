package routes

import (
	"time"

	authHandlers "masterclass.link/handlers/auth"
	"masterclass.link/middlewares"
	"masterclass.link/pkg/flashmessages"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func registerAuthRoutes(app *fiber.App, deps Dependencies) {
	authHandler := authHandlers.NewAuthHandler(deps.Auth)
	authGroup := app.Group("/auth")

	limit := loginLimiter(deps)
	authGroup.Get("/login", middlewares.GuestMiddleware, authHandler.ShowLogin)
	authGroup.Post("/login", middlewares.GuestMiddleware, limit, authHandler.Login)
	authGroup.Get("/register", middlewares.GuestMiddleware, authHandler.ShowRegister)
	authGroup.Post("/register", middlewares.GuestMiddleware, limit, authHandler.Register)

	authGroup.Get("/logout", authHandler.Logout)
	authGroup.Post("/logout", authHandler.Logout)
}

func loginLimiter(deps Dependencies) fiber.Handler {
	limit := deps.LoginRateLimit
	if limit <= 0 {
		limit = 10
	}
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		Storage:    deps.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "login:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, "Too many attempts, wait a minute and try again.")
			return c.Redirect("/auth/login", fiber.StatusFound)
		},
	})
}
