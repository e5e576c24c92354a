package configs

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// SetupSession creates the server-side session store. storage may be nil,
// fiber then keeps sessions in process memory.
func SetupSession(cfg SessionConfig, storage fiber.Storage) *session.Store {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "masterclass_session"
	}
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     cfg.Expiration,
		KeyLookup:      "cookie:" + cookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Secure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})
}
