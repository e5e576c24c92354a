package utils

import (
	"encoding/json"
	"errors"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"
)

// Session keys.
const (
	SessionUserIDKey      = "user_id"
	SessionUserNameKey    = "user_name"
	SessionWizardStateKey = "wizard_state"
)

var (
	ErrSessionStoreMissing = errors.New("session store is not set on the request")
	ErrNotLoggedIn         = errors.New("no user in session")
)

// SessionStart returns the request's session from the store placed in
// locals by the session middleware.
func SessionStart(c *fiber.Ctx) (*session.Session, error) {
	store, ok := c.Locals("session_store").(*session.Store)
	if !ok || store == nil {
		return nil, ErrSessionStoreMissing
	}
	return store.Get(c)
}

func GetUserIDFromSession(sess *session.Session) (uint, error) {
	id, ok := sess.Get(SessionUserIDKey).(uint)
	if !ok || id == 0 {
		return 0, ErrNotLoggedIn
	}
	return id, nil
}

// SessionWrite adds values to a session before it is saved.
type SessionWrite func(sess *session.Session)

// SetUserSession stores the user under a new session id. Other keys,
// the wizard state among them, are kept. The session must not be
// loaded again in this request after the id changes, so anything else
// to store, a flash message for example, goes in through writes.
func SetUserSession(c *fiber.Ctx, user *models.User, writes ...SessionWrite) error {
	sess, err := SessionStart(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(SessionUserIDKey, user.ID)
	sess.Set(SessionUserNameKey, user.DisplayName())
	for _, write := range writes {
		write(sess)
	}
	return sess.Save()
}

// ClearUserSession logs the user out and drops their wizard progress.
// writes are applied to the regenerated session as in SetUserSession.
func ClearUserSession(c *fiber.Ctx, writes ...SessionWrite) error {
	sess, err := SessionStart(c)
	if err != nil {
		return err
	}
	sess.Delete(SessionUserIDKey)
	sess.Delete(SessionUserNameKey)
	sess.Delete(SessionWizardStateKey)
	if err := sess.Regenerate(); err != nil {
		return err
	}
	for _, write := range writes {
		write(sess)
	}
	return sess.Save()
}

// LoadWizardState returns an empty state when none is stored or the
// stored value cannot be decoded.
func LoadWizardState(c *fiber.Ctx) (*services.WizardState, error) {
	sess, err := SessionStart(c)
	if err != nil {
		return nil, err
	}
	state := &services.WizardState{}
	raw, ok := sess.Get(SessionWizardStateKey).(string)
	if !ok || raw == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		configslog.Log.Warn("Discarding unreadable wizard state", zap.Error(err))
		return &services.WizardState{}, nil
	}
	return state, nil
}

func SaveWizardState(c *fiber.Ctx, state *services.WizardState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	sess, err := SessionStart(c)
	if err != nil {
		return err
	}
	sess.Set(SessionWizardStateKey, string(raw))
	return sess.Save()
}

func ClearWizardState(c *fiber.Ctx) error {
	sess, err := SessionStart(c)
	if err != nil {
		return err
	}
	sess.Delete(SessionWizardStateKey)
	return sess.Save()
}

// CurrentUser returns the user LoadUser stored for this request.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals("user").(*models.User)
	return user, ok && user != nil
}
