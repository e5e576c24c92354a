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

// Wizard paths.
const (
	StartPath          = "/create-masterclass"
	CategoryPath       = StartPath + "/content/category"
	NewOrExistingPath  = StartPath + "/content/new-or-existing"
	CreateNewPath      = StartPath + "/content/create-new"
	SchedulePath       = StartPath + "/schedule"
	LocationTypePath   = StartPath + "/location/type"
	OnlinePath         = StartPath + "/location/online"
	SearchPath         = StartPath + "/location/search"
	ResultsPath        = StartPath + "/location/search/results"
	InPersonPath       = StartPath + "/location/details"
	TasksPath          = StartPath + "/tasks"
	PublishPath        = StartPath + "/publish"
	afterCompletedPath = "/"
)

// WizardHandler serves the masterclass creation wizard. Progress lives in
// the session as a services.WizardState.
type WizardHandler struct {
	wizard services.IWizardService
}

func NewWizardHandler(wizard services.IWizardService) *WizardHandler {
	return &WizardHandler{wizard: wizard}
}

func (h *WizardHandler) ShowStart(c *fiber.Ctx) error {
	return renderer.Render(c, "wizard/start", layout, fiber.Map{"Title": "Create a masterclass"})
}

// Start creates a draft and begins a new wizard run.
func (h *WizardHandler) Start(c *fiber.Ctx) error {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return c.Redirect("/auth/login", fiber.StatusFound)
	}
	state, err := h.wizard.Start(c.UserContext(), user)
	if err != nil {
		return h.fail(c, err, "wizard/start", fiber.Map{"Title": "Create a masterclass"})
	}
	if err := utils.SaveWizardState(c, state); err != nil {
		return err
	}
	return c.Redirect(CategoryPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowCategory(c *fiber.Ctx) error {
	state, _, err := h.begin(c, services.StepChooseCategory)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/category", layout, categoryData(state))
}

// ChooseCategory stores the category and renders the content choice.
func (h *WizardHandler) ChooseCategory(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepChooseCategory)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	contents, err := h.wizard.ChooseCategory(c.UserContext(), user, state, c.FormValue("category"))
	if err != nil {
		return h.fail(c, err, "wizard/category", categoryData(state))
	}
	if err := utils.SaveWizardState(c, state); err != nil {
		return err
	}
	return renderer.Render(c, "wizard/new_or_existing", layout, contentData(state, contents))
}

func (h *WizardHandler) ShowNewOrExisting(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepChooseContent)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	contents, err := h.wizard.ExistingContent(c.UserContext(), user, state)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/new_or_existing", layout, contentData(state, contents))
}

// ChooseContent attaches existing content or moves on to create new content.
func (h *WizardHandler) ChooseContent(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepChooseContent)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	createNew, err := h.wizard.ChooseContent(c.UserContext(), user, state, c.FormValue("content"))
	if err != nil {
		contents, _ := h.wizard.ExistingContent(c.UserContext(), user, state)
		return h.fail(c, err, "wizard/new_or_existing", contentData(state, contents))
	}
	if createNew {
		return renderer.Render(c, "wizard/create_new", layout, fiber.Map{
			"Title":    "Create new content",
			"Category": state.Category,
		})
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, "Content added to your masterclass draft.")
	return c.Redirect(afterCompletedPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowCreateNew(c *fiber.Ctx) error {
	state, _, err := h.begin(c, services.StepCreateContent)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/create_new", layout, fiber.Map{
		"Title":    "Create new content",
		"Category": state.Category,
	})
}

func (h *WizardHandler) CreateNew(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepCreateContent)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	name, description := c.FormValue("name"), c.FormValue("description")
	if err := h.wizard.CreateContent(c.UserContext(), user, state, name, description); err != nil {
		return h.fail(c, err, "wizard/create_new", fiber.Map{
			"Title":       "Create new content",
			"Category":    state.Category,
			"Name":        name,
			"Description": description,
		})
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, "Content created for your masterclass draft.")
	return c.Redirect(afterCompletedPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowSchedule(c *fiber.Ctx) error {
	if _, _, err := h.begin(c, services.StepSchedule); err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/schedule", layout, fiber.Map{
		"Title": "When is the masterclass?",
		"Input": services.ScheduleInput{},
	})
}

func (h *WizardHandler) SetSchedule(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepSchedule)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	input := services.ScheduleInput{
		Date:         c.FormValue("date"),
		Time:         c.FormValue("time"),
		MaxAttendees: c.FormValue("max_attendees"),
	}
	if err := h.wizard.SetSchedule(c.UserContext(), user, state, input); err != nil {
		return h.fail(c, err, "wizard/schedule", fiber.Map{"Title": "When is the masterclass?", "Input": input})
	}
	return c.Redirect(TasksPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowLocationType(c *fiber.Ctx) error {
	if _, _, err := h.begin(c, services.StepChooseLocationType); err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/location_type", layout, fiber.Map{"Title": "Where will the masterclass take place?"})
}

func (h *WizardHandler) ChooseLocationType(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepChooseLocationType)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	next, err := h.wizard.ChooseLocationType(c.UserContext(), user, state, c.FormValue("location_type"))
	if err != nil {
		return h.fail(c, err, "wizard/location_type", fiber.Map{"Title": "Where will the masterclass take place?"})
	}
	if next == services.StepOnlineDetails {
		return c.Redirect(OnlinePath, fiber.StatusFound)
	}
	return c.Redirect(SearchPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowOnline(c *fiber.Ctx) error {
	if _, _, err := h.begin(c, services.StepOnlineDetails); err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/online", layout, fiber.Map{"Title": "Add online details"})
}

func (h *WizardHandler) AddOnline(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepOnlineDetails)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	url, instructions := c.FormValue("url"), c.FormValue("joining_instructions")
	if err := h.wizard.AddOnlineDetails(c.UserContext(), user, state, url, instructions); err != nil {
		return h.fail(c, err, "wizard/online", fiber.Map{
			"Title":               "Add online details",
			"URL":                 url,
			"JoiningInstructions": instructions,
		})
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, "Online details saved.")
	return c.Redirect(afterCompletedPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowSearch(c *fiber.Ctx) error {
	if _, _, err := h.begin(c, services.StepSearchLocation); err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/search", layout, fiber.Map{"Title": "Find the building"})
}

// Search resolves the query and keeps the candidates for the results page.
func (h *WizardHandler) Search(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepSearchLocation)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	query := c.FormValue("query")
	searchErr := h.wizard.SearchLocation(c.UserContext(), user, state, query)
	if err := utils.SaveWizardState(c, state); err != nil {
		return err
	}
	if searchErr != nil {
		return h.fail(c, searchErr, "wizard/search", fiber.Map{"Title": "Find the building", "Query": query})
	}
	return c.Redirect(ResultsPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowResults(c *fiber.Ctx) error {
	state, _, err := h.begin(c, services.StepLocationResults)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/results", layout, resultsData(state))
}

func (h *WizardHandler) SelectResult(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepLocationResults)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	if err := h.wizard.SelectLocation(c.UserContext(), user, state, c.FormValue("location")); err != nil {
		return h.fail(c, err, "wizard/results", resultsData(state))
	}
	if err := utils.SaveWizardState(c, state); err != nil {
		return err
	}
	return c.Redirect(InPersonPath, fiber.StatusFound)
}

func (h *WizardHandler) ShowInPerson(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepInPersonDetails)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	draft, err := h.wizard.Draft(c.UserContext(), user, state)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	if draft.Location == nil {
		return c.Redirect(SearchPath, fiber.StatusFound)
	}
	return renderer.Render(c, "wizard/in_person", layout, inPersonData(draft, services.InPersonInput{}))
}

func (h *WizardHandler) AddInPerson(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepInPersonDetails)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	input := services.InPersonInput{
		Room:                 c.FormValue("room"),
		Floor:                c.FormValue("floor"),
		BuildingInstructions: c.FormValue("building_instructions"),
	}
	if err := h.wizard.AddInPersonDetails(c.UserContext(), user, state, input); err != nil {
		draft, _ := h.wizard.Draft(c.UserContext(), user, state)
		return h.fail(c, err, "wizard/in_person", inPersonData(draft, input))
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, "Location details saved.")
	return c.Redirect(afterCompletedPath, fiber.StatusFound)
}

// ShowTasks shows which parts of the draft are done.
func (h *WizardHandler) ShowTasks(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepTasks)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	draft, err := h.wizard.Draft(c.UserContext(), user, state)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	return renderer.Render(c, "wizard/tasks", layout, tasksData(draft))
}

func (h *WizardHandler) Publish(c *fiber.Ctx) error {
	state, user, err := h.begin(c, services.StepPublish)
	if err != nil {
		return h.fail(c, err, "", nil)
	}
	if err := h.wizard.Publish(c.UserContext(), user, state); err != nil {
		draft, _ := h.wizard.Draft(c.UserContext(), user, state)
		return h.fail(c, err, "wizard/tasks", tasksData(draft))
	}
	id := state.DraftMasterclassID
	if err := utils.ClearWizardState(c); err != nil {
		configslog.Log.Warn("Wizard state not cleared after publish", zap.Error(err))
	}
	_ = flashmessages.SetFlashMessage(c, flashmessages.FlashSuccessKey, "Your masterclass is published.")
	return c.Redirect("/masterclass/"+strconv.FormatUint(uint64(id), 10), fiber.StatusFound)
}

// begin loads the user and the wizard state and checks the state has
// what step needs.
func (h *WizardHandler) begin(c *fiber.Ctx, step services.WizardStep) (*services.WizardState, *models.User, error) {
	user, ok := utils.CurrentUser(c)
	if !ok {
		return nil, nil, services.ErrWizardStateMissing
	}
	state, err := utils.LoadWizardState(c)
	if err != nil {
		return nil, nil, err
	}
	if err := state.Require(step); err != nil {
		return nil, nil, err
	}
	return state, user, nil
}

// fail turns a step error into a response. Missing state restarts the
// wizard. Otherwise view is re-rendered with the error: 403 for
// validation, 502 for the place lookup, 500 for the rest. Pages without
// a form of their own fall back to the start page.
func (h *WizardHandler) fail(c *fiber.Ctx, err error, view string, data fiber.Map) error {
	if errors.Is(err, services.ErrWizardStateMissing) {
		_ = utils.ClearWizardState(c)
		_ = flashmessages.SetFlashMessage(c, flashmessages.FlashErrorKey, err.Error())
		return c.Redirect(StartPath, fiber.StatusFound)
	}
	if view == "" || data == nil {
		view, data = "wizard/start", fiber.Map{"Title": "Create a masterclass"}
	}
	data["ValidationError"] = true
	data["ErrorMessage"] = err.Error()

	status := fiber.StatusInternalServerError
	var missing *services.FieldsMissingError
	switch {
	case errors.As(err, &missing):
		status = fiber.StatusForbidden
		data["EmptyFields"] = missing.Fields
		data["ErrorMessage"] = "Fill in the required fields."
	case services.IsWizardValidationError(err):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrPlaceLookupFailed), errors.Is(err, services.ErrPlaceLookupUnavailable):
		status = fiber.StatusBadGateway
		data["ErrorMessage"] = "Location search is unavailable right now, try again later."
	default:
		configslog.Log.Error("Wizard step failed", zap.String("path", c.Path()), zap.Error(err))
		data["ErrorMessage"] = "Something went wrong, try again."
	}
	return renderer.Render(c, view, layout, data, status)
}

func categoryData(state *services.WizardState) fiber.Map {
	return fiber.Map{
		"Title":      "Choose a category",
		"Categories": models.ContentCategories,
		"Selected":   state.Category,
	}
}

func contentData(state *services.WizardState, contents []models.MasterclassContent) fiber.Map {
	return fiber.Map{
		"Title":    "Choose content",
		"Category": state.Category,
		"Contents": contents,
	}
}

func resultsData(state *services.WizardState) fiber.Map {
	return fiber.Map{
		"Title":   "Choose the building",
		"Results": state.LocationResults,
	}
}

func inPersonData(draft *models.Masterclass, input services.InPersonInput) fiber.Map {
	data := fiber.Map{
		"Title": "Where in the building?",
		"Input": input,
	}
	if draft != nil && draft.Location != nil {
		data["Location"] = draft.Location
	}
	return data
}

func tasksData(draft *models.Masterclass) fiber.Map {
	done := map[string]bool{
		models.TaskContent:  true,
		models.TaskSchedule: true,
		models.TaskLocation: true,
	}
	if draft == nil {
		return fiber.Map{"Title": "Your masterclass draft", "Done": map[string]bool{}}
	}
	missing := draft.MissingTasks()
	for _, task := range missing {
		done[task] = false
	}
	return fiber.Map{
		"Title": "Your masterclass draft",
		"Done":  done,
		"Ready": len(missing) == 0,
	}
}
