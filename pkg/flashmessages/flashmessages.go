// Package flashmessages keeps one-shot messages in the session until the
// next rendered page reads them.
package flashmessages

import (
	"masterclass.link/configs/configslog"
	"masterclass.link/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

const (
	FlashSuccessKey = "flash_success"
	FlashErrorKey   = "flash_error"
)

// FlashMessages is what a page shows once.
type FlashMessages struct {
	Success string
	Error   string
}

// SetFlashMessage stores message under key, key is FlashSuccessKey or FlashErrorKey.
func SetFlashMessage(c *fiber.Ctx, key, message string) error {
	sess, err := utils.SessionStart(c)
	if err != nil {
		configslog.Log.Warn("Flash message not stored", zap.String("key", key), zap.Error(err))
		return err
	}
	sess.Set(key, message)
	return sess.Save()
}

// With returns a session write storing message under key, for handlers
// that change the session id in the same request.
func With(key, message string) utils.SessionWrite {
	return func(sess *session.Session) {
		sess.Set(key, message)
	}
}

// GetFlashMessages reads and removes both messages.
func GetFlashMessages(c *fiber.Ctx) (FlashMessages, error) {
	var messages FlashMessages
	sess, err := utils.SessionStart(c)
	if err != nil {
		return messages, err
	}
	success, _ := sess.Get(FlashSuccessKey).(string)
	failure, _ := sess.Get(FlashErrorKey).(string)
	if success == "" && failure == "" {
		return messages, nil
	}
	messages.Success, messages.Error = success, failure
	sess.Delete(FlashSuccessKey)
	sess.Delete(FlashErrorKey)
	return messages, sess.Save()
}
