package handlers

import (
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/pkg/flashmessages"
	"masterclass.link/pkg/renderer"
	"masterclass.link/services"
	"masterclass.link/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const authLayout = "layouts/main"

// AuthHandler login, registration and logout.
type AuthHandler struct {
	service services.IAuthService
}

func NewAuthHandler(service services.IAuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return renderer.Render(c, "auth/login", authLayout, fiber.Map{"Title": "Log in"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	user, err := h.service.Authenticate(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		message := services.ErrAuthGeneric.Error()
		var authErr services.AuthServiceError
		if errors.As(err, &authErr) {
			message = authErr.Error()
		}
		_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, message)
		if errors.Is(err, services.ErrRegistrationIncomplete) {
			return c.Redirect("/auth/register", fiber.StatusFound)
		}
		return c.Redirect("/auth/login", fiber.StatusFound)
	}

	welcome := flashmessages.With(flashmessages.FlashSuccessKey, "Welcome back, "+user.DisplayName()+".")
	if err := utils.SetUserSession(c, user, welcome); err != nil {
		configslog.Log.Error("Login: session could not be saved", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return renderer.Render(c, "auth/register", authLayout, fiber.Map{"Title": "Complete your registration"})
}

// Register sets the password of a provisioned account and logs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	email := c.FormValue("email")
	user, err := h.service.CompleteRegistration(c.UserContext(), email, c.FormValue("password"), c.FormValue("confirm_password"))
	if err != nil {
		var authErr services.AuthServiceError
		if !errors.As(err, &authErr) {
			configslog.Log.Error("Register failed", zap.Error(err))
			return renderer.Render(c, "auth/register", authLayout, fiber.Map{
				"Title": "Complete your registration",
				"Email": email,
				"Error": services.ErrAuthGeneric.Error(),
			}, fiber.StatusInternalServerError)
		}
		return renderer.Render(c, "auth/register", authLayout, fiber.Map{
			"Title": "Complete your registration",
			"Email": email,
			"Error": authErr.Error(),
		}, fiber.StatusUnprocessableEntity)
	}

	ready := flashmessages.With(flashmessages.FlashSuccessKey, "Your account is ready.")
	if err := utils.SetUserSession(c, user, ready); err != nil {
		configslog.Log.Error("Register: session could not be saved", zap.Uint("user_id", user.ID), zap.Error(err))
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	loggedOut := flashmessages.With(flashmessages.FlashSuccessKey, "You have been logged out.")
	if err := utils.ClearUserSession(c, loggedOut); err != nil {
		configslog.Log.Warn("Logout: session could not be cleared", zap.Error(err))
	}
	return c.Redirect("/auth/login", fiber.StatusFound)
}
