package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"masterclass.link/configs/configslog"
	"masterclass.link/models"

	"go.uber.org/zap"
)

// WizardStep names one page of the creation wizard.
type WizardStep string

const (
	StepStart              WizardStep = "start"
	StepChooseCategory     WizardStep = "choose_content_category"
	StepChooseContent      WizardStep = "choose_new_or_existing_content"
	StepCreateContent      WizardStep = "create_new_content"
	StepSchedule           WizardStep = "add_schedule"
	StepChooseLocationType WizardStep = "choose_location_type"
	StepOnlineDetails      WizardStep = "add_online_details"
	StepSearchLocation     WizardStep = "search_location"
	StepLocationResults    WizardStep = "location_results"
	StepInPersonDetails    WizardStep = "add_in_person_details"
	StepTasks              WizardStep = "tasks"
	StepPublish            WizardStep = "publish"
)

// Location type choices accepted by ChooseLocationType.
const (
	LocationTypeOnline   = "online"
	LocationTypeInPerson = "in person"
)

// ContentChoiceNew asks ChooseContent for the create-new step.
const ContentChoiceNew = "new"

// Input formats of the schedule step.
const (
	ScheduleDateLayout = "2006-01-02"
	ScheduleTimeLayout = "15:04"
)

// WizardError wizard step errors. All but ErrWizardStateMissing are
// validation failures of the submitted form.
type WizardError string

func (e WizardError) Error() string { return string(e) }

const (
	ErrWizardStateMissing        WizardError = "your masterclass draft has expired, please start again"
	ErrCategoryRequired          WizardError = "choose a category"
	ErrContentChoiceRequired     WizardError = "choose existing content or create new content"
	ErrLocationTypeRequired      WizardError = "choose online or in person"
	ErrURLRequired               WizardError = "enter the joining link"
	ErrNoLocationResults         WizardError = "no locations match your search"
	ErrLocationSelectionRequired WizardError = "choose a location"
	ErrLocationNotChosen         WizardError = "choose a location before adding room details"
	ErrInvalidSchedule           WizardError = "enter a valid date, time and number of attendees"
)

// FieldsMissingError reports the empty mandatory form fields in form order.
type FieldsMissingError struct {
	Fields []string
}

func (e *FieldsMissingError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// IsWizardValidationError reports whether err should re-render the step
// with a 403 instead of failing the request.
func IsWizardValidationError(err error) bool {
	var wizardErr WizardError
	if errors.As(err, &wizardErr) {
		return wizardErr != ErrWizardStateMissing
	}
	var missing *FieldsMissingError
	if errors.As(err, &missing) {
		return true
	}
	var incomplete *IncompleteError
	if errors.As(err, &incomplete) {
		return true
	}
	return errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrContentNotFound) ||
		errors.Is(err, ErrLocationQueryRequired) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrTimestampRequired)
}

// WizardState is the part of the wizard kept in the user's session
// between requests.
type WizardState struct {
	DraftMasterclassID uint                `json:"draft_masterclass_id,omitempty"`
	Category           string              `json:"category,omitempty"`
	LocationResults    []LocationCandidate `json:"location_results,omitempty"`
}

// Require checks the state holds what step reads.
func (s *WizardState) Require(step WizardStep) error {
	if step == StepStart {
		return nil
	}
	if s == nil || s.DraftMasterclassID == 0 {
		return ErrWizardStateMissing
	}
	switch step {
	case StepChooseContent, StepCreateContent:
		if s.Category == "" {
			return ErrWizardStateMissing
		}
	case StepLocationResults:
		if len(s.LocationResults) == 0 {
			return ErrWizardStateMissing
		}
	}
	return nil
}

// ScheduleInput is the raw schedule form.
type ScheduleInput struct {
	Date         string
	Time         string
	MaxAttendees string
}

// InPersonInput is the raw in-person details form.
type InPersonInput struct {
	Room                 string
	Floor                string
	BuildingInstructions string
}

// IWizardService runs the masterclass creation wizard. Every method
// takes the state loaded from the session and may modify it, the
// caller saves it back.
type IWizardService interface {
	Start(ctx context.Context, user *models.User) (*WizardState, error)
	ChooseCategory(ctx context.Context, user *models.User, state *WizardState, category string) ([]models.MasterclassContent, error)
	ExistingContent(ctx context.Context, user *models.User, state *WizardState) ([]models.MasterclassContent, error)
	ChooseContent(ctx context.Context, user *models.User, state *WizardState, choice string) (createNew bool, err error)
	CreateContent(ctx context.Context, user *models.User, state *WizardState, name, description string) error
	SetSchedule(ctx context.Context, user *models.User, state *WizardState, input ScheduleInput) error
	ChooseLocationType(ctx context.Context, user *models.User, state *WizardState, locationType string) (WizardStep, error)
	AddOnlineDetails(ctx context.Context, user *models.User, state *WizardState, url, joiningInstructions string) error
	SearchLocation(ctx context.Context, user *models.User, state *WizardState, query string) error
	SelectLocation(ctx context.Context, user *models.User, state *WizardState, index string) error
	AddInPersonDetails(ctx context.Context, user *models.User, state *WizardState, input InPersonInput) error
	Draft(ctx context.Context, user *models.User, state *WizardState) (*models.Masterclass, error)
	Publish(ctx context.Context, user *models.User, state *WizardState) error
}

// WizardService implements IWizardService.
type WizardService struct {
	masterclasses IMasterclassService
	resolver      ILocationResolver
}

func NewWizardService(masterclasses IMasterclassService, resolver ILocationResolver) IWizardService {
	return &WizardService{masterclasses: masterclasses, resolver: resolver}
}

// Start creates the draft and returns a fresh state pointing at it.
func (s *WizardService) Start(ctx context.Context, user *models.User) (*WizardState, error) {
	draft, err := s.masterclasses.CreateDraft(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &WizardState{DraftMasterclassID: draft.ID}, nil
}

func (s *WizardService) ChooseCategory(ctx context.Context, user *models.User, state *WizardState, category string) ([]models.MasterclassContent, error) {
	if _, err := s.loadDraft(ctx, user, state, StepChooseCategory); err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrCategoryRequired
	}
	if !models.IsContentCategory(category) {
		return nil, ErrInvalidCategory
	}
	state.Category = category
	return s.masterclasses.ListContentByCategory(ctx, category)
}

func (s *WizardService) ExistingContent(ctx context.Context, user *models.User, state *WizardState) ([]models.MasterclassContent, error) {
	if _, err := s.loadDraft(ctx, user, state, StepChooseContent); err != nil {
		return nil, err
	}
	return s.masterclasses.ListContentByCategory(ctx, state.Category)
}

// ChooseContent attaches an existing content id, or reports createNew for
// ContentChoiceNew.
func (s *WizardService) ChooseContent(ctx context.Context, user *models.User, state *WizardState, choice string) (bool, error) {
	draft, err := s.loadDraft(ctx, user, state, StepChooseContent)
	if err != nil {
		return false, err
	}
	choice = strings.TrimSpace(choice)
	if choice == ContentChoiceNew {
		return true, nil
	}
	contentID, err := strconv.ParseUint(choice, 10, 64)
	if err != nil || contentID == 0 {
		return false, ErrContentChoiceRequired
	}
	if err := s.masterclasses.AttachExistingContent(ctx, draft.ID, uint(contentID)); err != nil {
		return false, err
	}
	return false, nil
}

func (s *WizardService) CreateContent(ctx context.Context, user *models.User, state *WizardState, name, description string) error {
	draft, err := s.loadDraft(ctx, user, state, StepCreateContent)
	if err != nil {
		return err
	}
	if missing := missingFields("name", name, "description", description); missing != nil {
		return missing
	}
	_, err = s.masterclasses.CreateNewContentAndAttach(ctx, draft.ID, name, description, state.Category)
	return err
}

func (s *WizardService) SetSchedule(ctx context.Context, user *models.User, state *WizardState, input ScheduleInput) error {
	draft, err := s.loadDraft(ctx, user, state, StepSchedule)
	if err != nil {
		return err
	}
	if missing := missingFields("date", input.Date, "time", input.Time, "max_attendees", input.MaxAttendees); missing != nil {
		return missing
	}
	at, err := time.Parse(ScheduleDateLayout+" "+ScheduleTimeLayout,
		strings.TrimSpace(input.Date)+" "+strings.TrimSpace(input.Time))
	if err != nil {
		return ErrInvalidSchedule
	}
	maxAttendees, err := strconv.Atoi(strings.TrimSpace(input.MaxAttendees))
	if err != nil {
		return ErrInvalidSchedule
	}
	return s.masterclasses.SetSchedule(ctx, draft.ID, at, maxAttendees)
}

// ChooseLocationType returns the next step for the chosen type.
func (s *WizardService) ChooseLocationType(ctx context.Context, user *models.User, state *WizardState, locationType string) (WizardStep, error) {
	if _, err := s.loadDraft(ctx, user, state, StepChooseLocationType); err != nil {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(locationType)) {
	case LocationTypeOnline:
		return StepOnlineDetails, nil
	case LocationTypeInPerson, "in_person", "in-person":
		return StepSearchLocation, nil
	}
	return "", ErrLocationTypeRequired
}

func (s *WizardService) AddOnlineDetails(ctx context.Context, user *models.User, state *WizardState, url, joiningInstructions string) error {
	draft, err := s.loadDraft(ctx, user, state, StepOnlineDetails)
	if err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return ErrURLRequired
	}
	return s.masterclasses.SetLocationDetails(ctx, draft.ID, models.RemoteDetails{
		URL:                 url,
		JoiningInstructions: joiningInstructions,
	})
}

// SearchLocation resolves query and keeps the candidates in state for
// the results step.
func (s *WizardService) SearchLocation(ctx context.Context, user *models.User, state *WizardState, query string) error {
	if _, err := s.loadDraft(ctx, user, state, StepSearchLocation); err != nil {
		return err
	}
	candidates, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		state.LocationResults = nil
		return ErrNoLocationResults
	}
	state.LocationResults = candidates
	return nil
}

// SelectLocation attaches the candidate at index, materializing external
// candidates first. index is zero based.
func (s *WizardService) SelectLocation(ctx context.Context, user *models.User, state *WizardState, index string) error {
	draft, err := s.loadDraft(ctx, user, state, StepLocationResults)
	if err != nil {
		return err
	}
	i, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || i < 0 || i >= len(state.LocationResults) {
		return ErrLocationSelectionRequired
	}
	location, err := s.resolver.Materialize(ctx, state.LocationResults[i])
	if err != nil {
		return err
	}
	if err := s.masterclasses.AttachLocation(ctx, draft.ID, location.ID); err != nil {
		return err
	}
	state.LocationResults = nil
	return nil
}

func (s *WizardService) AddInPersonDetails(ctx context.Context, user *models.User, state *WizardState, input InPersonInput) error {
	draft, err := s.loadDraft(ctx, user, state, StepInPersonDetails)
	if err != nil {
		return err
	}
	if missing := missingFields("room", input.Room, "floor", input.Floor); missing != nil {
		return missing
	}
	if draft.LocationID == nil {
		return ErrLocationNotChosen
	}
	return s.masterclasses.SetLocationDetails(ctx, draft.ID, models.InPersonDetails{
		Room:                 input.Room,
		Floor:                input.Floor,
		BuildingInstructions: input.BuildingInstructions,
	})
}

// Draft returns the draft the state points at, with its associations.
func (s *WizardService) Draft(ctx context.Context, user *models.User, state *WizardState) (*models.Masterclass, error) {
	return s.loadDraft(ctx, user, state, StepTasks)
}

func (s *WizardService) Publish(ctx context.Context, user *models.User, state *WizardState) error {
	draft, err := s.loadDraft(ctx, user, state, StepPublish)
	if err != nil {
		return err
	}
	return s.masterclasses.Publish(ctx, draft.ID)
}

// loadDraft checks the state for step and returns the draft it points at.
// A draft that is gone, published or owned by someone else counts as
// missing state.
func (s *WizardService) loadDraft(ctx context.Context, user *models.User, state *WizardState, step WizardStep) (*models.Masterclass, error) {
	if err := state.Require(step); err != nil {
		return nil, err
	}
	draft, err := s.masterclasses.GetMasterclass(ctx, state.DraftMasterclassID)
	if err != nil {
		if errors.Is(err, ErrMasterclassNotFound) {
			return nil, ErrWizardStateMissing
		}
		return nil, err
	}
	if !draft.Draft || draft.InstructorID == nil || *draft.InstructorID != user.ID {
		configslog.Log.Warn("Wizard state points at a masterclass the user cannot edit",
			zap.Uint("user_id", user.ID), zap.Uint("masterclass_id", draft.ID), zap.String("step", string(step)))
		return nil, ErrWizardStateMissing
	}
	return draft, nil
}

// missingFields takes name/value pairs and returns the names of the blank
// values, or nil when all are present.
func missingFields(pairs ...string) *FieldsMissingError {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("missingFields: odd number of arguments %d", len(pairs)))
	}
	var missing []string
	for i := 0; i < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			missing = append(missing, pairs[i])
		}
	}
	if missing == nil {
		return nil
	}
	return &FieldsMissingError{Fields: missing}
}

var _ IWizardService = (*WizardService)(nil)
