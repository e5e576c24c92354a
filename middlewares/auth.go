package middlewares

import (
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/pkg/flashmessages"
	"masterclass.link/services"
	"masterclass.link/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/auth/login"

// AuthMiddleware lets only logged in users through. The session is left
// untouched so an interrupted wizard can continue after login.
func AuthMiddleware(c *fiber.Ctx) error {
	if userID, ok := c.Locals("userID").(uint); ok && userID != 0 {
		return c.Next()
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, "Please log in to continue.")
	return c.Redirect(LoginPath, fiber.StatusFound)
}

// GuestMiddleware sends logged in users away from the login pages.
func GuestMiddleware(c *fiber.Ctx) error {
	if userID, ok := c.Locals("userID").(uint); ok && userID != 0 {
		return c.Redirect("/", fiber.StatusFound)
	}
	return c.Next()
}

// LoadUser puts the logged in *models.User into locals under "user". A
// session pointing at a deleted user is logged out.
func LoadUser(auth services.IAuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok || userID == 0 {
			return c.Next()
		}
		user, err := auth.GetUserByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				configslog.Log.Warn("Session user no longer exists", zap.Uint("user_id", userID))
				_ = utils.ClearUserSession(c)
				return c.Redirect(LoginPath, fiber.StatusFound)
			}
			return err
		}
		c.Locals("user", user)
		return c.Next()
	}
}
