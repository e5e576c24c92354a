package handlers

import (
	"errors"
	"strconv"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"
	"masterclass.link/pkg/flashmessages"
	"masterclass.link/pkg/renderer"
	"masterclass.link/services"
	"masterclass.link/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const layout = "layouts/main"

// MasterclassHandler attendee pages: listing, detail, sign up and bookings.
type MasterclassHandler struct {
	masterclasses services.IMasterclassService
	bookings      services.IBookingService
}

func NewMasterclassHandler(masterclasses services.IMasterclassService, bookings services.IBookingService) *MasterclassHandler {
	return &MasterclassHandler{masterclasses: masterclasses, bookings: bookings}
}

// Index lists published masterclasses and the user's own drafts.
func (h *MasterclassHandler) Index(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	published, err := h.masterclasses.ListPublished(c.UserContext())
	if err != nil {
		return err
	}
	drafts, err := h.masterclasses.ListDrafts(c.UserContext(), user.ID)
	if err != nil {
		configslog.Log.Warn("Index: drafts not loaded", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return renderer.Render(c, "masterclasses/index", layout, fiber.Map{
		"Title":         "Upcoming masterclasses",
		"Masterclasses": published,
		"Drafts":        drafts,
	})
}

func (h *MasterclassHandler) Show(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	masterclass, err := h.visibleMasterclass(c, c.Params("id"), user)
	if err != nil {
		return h.notFoundOr(c, err)
	}
	isAttendee, err := h.bookings.IsAttendee(c.UserContext(), user.ID, masterclass.ID)
	if err != nil {
		return err
	}
	remaining, hasCapacity := masterclass.RemainingSpaces()
	title := "Masterclass"
	if masterclass.MasterclassContent != nil {
		title = masterclass.MasterclassContent.Name
	}
	return renderer.Render(c, "masterclasses/detail", layout, fiber.Map{
		"Title":           title,
		"Masterclass":     masterclass,
		"AlreadyAttendee": isAttendee,
		"RemainingSpaces": remaining,
		"HasCapacity":     hasCapacity,
	})
}

// Book signs the user up and redirects to the confirmation page.
func (h *MasterclassHandler) Book(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	id, err := parseID(c.Params("id"))
	if err != nil {
		return h.notFoundOr(c, services.ErrMasterclassNotFound)
	}

	err = h.bookings.Book(c.UserContext(), user, id)
	switch {
	case err == nil:
		return c.Redirect("/signup-confirmation?masterclass_id="+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
	case errors.Is(err, services.ErrAlreadyBooked):
		_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, err.Error())
		return c.Redirect("/masterclass/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
	case errors.Is(err, services.ErrMasterclassNotFound), errors.Is(err, services.ErrMasterclassNotBookable):
		return h.notFoundOr(c, services.ErrMasterclassNotFound)
	}
	configslog.Log.Error("Book failed", zap.Uint("user_id", user.ID), zap.Uint("masterclass_id", id), zap.Error(err))
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, services.ErrBookingFailed.Error())
	return c.Redirect("/masterclass/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
}

func (h *MasterclassHandler) SignupConfirmation(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	masterclass, err := h.visibleMasterclass(c, c.Query("masterclass_id"), user)
	if err != nil {
		return h.notFoundOr(c, err)
	}
	return renderer.Render(c, "masterclasses/signup_confirmation", layout, fiber.Map{
		"Title":       "You are signed up",
		"Masterclass": masterclass,
	})
}

// MyMasterclasses lists the user's bookings and the content they have taught.
func (h *MasterclassHandler) MyMasterclasses(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	booked, err := h.masterclasses.GetBookedMasterclasses(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	runBefore, err := h.masterclasses.GetMasterclassContentRunBefore(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return renderer.Render(c, "masterclasses/mine", layout, fiber.Map{
		"Title":     "My masterclasses",
		"Booked":    booked,
		"RunBefore": runBefore,
	})
}

// visibleMasterclass loads a published masterclass, or a draft the user
// instructs.
func (h *MasterclassHandler) visibleMasterclass(c *fiber.Ctx, rawID string, user *models.User) (*models.Masterclass, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, services.ErrMasterclassNotFound
	}
	masterclass, err := h.masterclasses.GetMasterclass(c.UserContext(), id)
	if err != nil {
		return nil, err
	}
	if masterclass.Draft && (masterclass.InstructorID == nil || *masterclass.InstructorID != user.ID) {
		return nil, services.ErrMasterclassNotFound
	}
	return masterclass, nil
}

func (h *MasterclassHandler) notFoundOr(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrMasterclassNotFound) {
		return renderer.Render(c, "errors/404", layout, fiber.Map{
			"Title":   "Masterclass not found",
			"Message": "This masterclass does not exist or is not open yet.",
		}, fiber.StatusNotFound)
	}
	return err
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
