// Package renderer renders views with the data every layout expects.
package renderer

import (
	"masterclass.link/configs/configslog"
	"masterclass.link/pkg/flashmessages"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Keys the layouts read.
const (
	FlashSuccessKeyView = "Success"
	FlashErrorKeyView   = "Error"
)

// SetFlashMessages copies flash messages into data unless the handler set
// its own.
func SetFlashMessages(data fiber.Map, messages flashmessages.FlashMessages) {
	if _, ok := data[FlashSuccessKeyView]; !ok && messages.Success != "" {
		data[FlashSuccessKeyView] = messages.Success
	}
	if _, ok := data[FlashErrorKeyView]; !ok && messages.Error != "" {
		data[FlashErrorKeyView] = messages.Error
	}
}

// Render renders view inside layout. status defaults to 200.
func Render(c *fiber.Ctx, view, layout string, data fiber.Map, status ...int) error {
	if data == nil {
		data = fiber.Map{}
	}
	messages, err := flashmessages.GetFlashMessages(c)
	if err != nil {
		configslog.Log.Debug("Flash messages unavailable", zap.Error(err))
	}
	SetFlashMessages(data, messages)

	if _, ok := data["UserName"]; !ok {
		data["UserName"] = c.Locals("userName")
	}
	_, authenticated := c.Locals("userID").(uint)
	data["IsAuthenticated"] = authenticated

	code := fiber.StatusOK
	if len(status) > 0 {
		code = status[0]
	}
	return c.Status(code).Render(view, data, layout)
}
