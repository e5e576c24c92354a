package routes

import (
	"errors"
	"time"

	"masterclass.link/configs/configslog"
	"masterclass.link/middlewares"
	"masterclass.link/pkg/renderer"
	"masterclass.link/services"
	"masterclass.link/utils"
	"masterclass.link/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

// Dependencies are the services and stores the routes are built from.
type Dependencies struct {
	Auth          services.IAuthService
	Masterclasses services.IMasterclassService
	Bookings      services.IBookingService
	Wizard        services.IWizardService

	SessionStore *session.Store
	// Storage backs the login limiter, nil keeps counters in memory.
	Storage fiber.Storage
	// CookieKey enables cookie encryption when set.
	CookieKey      string
	LoginRateLimit int
	// DisableRequestLog turns off the request logger, tests set it.
	DisableRequestLog bool
}

// NewApp builds the fiber app with views, error handling and all routes.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:                 views.NewEngine(),
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	SetupRoutes(app, deps)
	return app
}

// SetupRoutes registers the global middleware and every route group.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Use(recoverMiddleware.New())
	if !deps.DisableRequestLog {
		app.Use(logger.New())
	}
	if deps.CookieKey != "" {
		app.Use(encryptcookie.New(encryptcookie.Config{Key: deps.CookieKey}))
	}
	app.Use(initializeSessionAndLocals(deps.SessionStore))

	registerAuthRoutes(app, deps)
	registerMasterclassRoutes(app, deps)
	registerWizardRoutes(app, deps)

	app.Use(notFoundHandler)
}

// initializeSessionAndLocals exposes the session store and the logged in
// user's id and name to handlers through locals.
func initializeSessionAndLocals(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("session_store", store)
		sess, err := utils.SessionStart(c)
		if err != nil {
			configslog.Log.Warn("Session could not be loaded", zap.Error(err))
			return c.Next()
		}
		if userID, err := utils.GetUserIDFromSession(sess); err == nil {
			c.Locals("userID", userID)
		}
		if userName, ok := sess.Get(utils.SessionUserNameKey).(string); ok {
			c.Locals("userName", userName)
		}
		return c.Next()
	}
}

// authenticated is the guard chain for pages that need a logged in user.
func authenticated(deps Dependencies) []fiber.Handler {
	return []fiber.Handler{middlewares.AuthMiddleware, middlewares.LoadUser(deps.Auth)}
}

func guarded(deps Dependencies, handler fiber.Handler) []fiber.Handler {
	return append(authenticated(deps), handler)
}

func notFoundHandler(c *fiber.Ctx) error {
	return renderer.Render(c, "errors/404", "layouts/main", fiber.Map{"Title": "Page not found"}, fiber.StatusNotFound)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code == fiber.StatusNotFound {
		return notFoundHandler(c)
	}
	if code >= fiber.StatusInternalServerError {
		configslog.Log.Error("Request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	}
	if renderErr := renderer.Render(c, "errors/500", "layouts/main", fiber.Map{"Title": "Something went wrong"}, code); renderErr != nil {
		return c.Status(code).SendString(fiber.ErrInternalServerError.Message)
	}
	return nil
}
