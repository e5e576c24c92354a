package routes

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"masterclass.link/configs"
	"masterclass.link/models"
	"masterclass.link/repositories/repotest"
	"masterclass.link/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

type stubLookup struct {
	mu     sync.Mutex
	places []services.Place
}

func (s *stubLookup) SearchPlaces(_ context.Context, _ string) ([]services.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.places, nil
}

// contentUnavailable fails the existing content lookup of the wizard.
type contentUnavailable struct {
	services.IWizardService
}

func (contentUnavailable) ExistingContent(context.Context, *models.User, *services.WizardState) ([]models.MasterclassContent, error) {
	return nil, errors.New("content store unavailable")
}

type testApp struct {
	app   *fiber.App
	store *repotest.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithKey(t, "")
}

func newTestAppWithKey(t *testing.T, cookieKey string) *testApp {
	t.Helper()
	return newTestAppWith(t, cookieKey, nil)
}

// newTestAppWith builds the app over an in-memory store. wrapWizard, when
// set, replaces the wizard service.
func newTestAppWith(t *testing.T, cookieKey string, wrapWizard func(services.IWizardService) services.IWizardService) *testApp {
	t.Helper()
	store := repotest.NewStore()
	masterclasses := services.NewMasterclassService(store.Masterclasses(), store.Contents(), store.Locations())
	resolver := services.NewLocationResolver(store.Locations(), &stubLookup{})
	wizard := services.NewWizardService(masterclasses, resolver)
	if wrapWizard != nil {
		wizard = wrapWizard(wizard)
	}
	app := NewApp(Dependencies{
		Auth:              services.NewAuthService(store.Users(), 4),
		Masterclasses:     masterclasses,
		Bookings:          services.NewBookingService(store.Masterclasses(), store.Attendees(), nil),
		Wizard:            wizard,
		SessionStore:      configs.SetupSession(configs.SessionConfig{Expiration: time.Hour}, nil),
		CookieKey:         cookieKey,
		LoginRateLimit:    100,
		DisableRequestLog: true,
	})
	return &testApp{app: app, store: store}
}

func (a *testApp) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, u.SetPassword(testPassword, 4))
	require.NoError(t, a.store.Users().Create(context.Background(), u))
	return u
}

// client carries the session cookie between requests like a browser.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (a *testApp) client(t *testing.T) *client {
	return &client{t: t, app: a.app, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" || cookie.MaxAge < 0 || (!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now())) {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (c *client) get(path string) (*http.Response, string) {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// login signs in and checks the session is authenticated afterwards.
func (c *client) login(email string) {
	c.t.Helper()
	resp, _ := c.post("/auth/login", url.Values{"email": {email}, "password": {testPassword}})
	require.Equal(c.t, fiber.StatusFound, resp.StatusCode)
	require.Equal(c.t, "/", resp.Header.Get("Location"))

	resp, body := c.get("/my-masterclasses")
	require.Equal(c.t, fiber.StatusOK, resp.StatusCode, "not logged in after login")
	require.Contains(c.t, body, "Welcome back")
}

func id(n uint) string { return strconv.FormatUint(uint64(n), 10) }

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	for _, path := range []string{"/", "/my-masterclasses", "/create-masterclass"} {
		resp, _ := c.get(path)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)
	}

	resp, body := c.get("/auth/login")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please log in to continue.")
}

func TestLoginWithEncryptedCookies(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	a := newTestAppWithKey(t, key)
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	resp, _ := c.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterSignsIn(t *testing.T) {
	a := newTestApp(t)
	provisioned := &models.User{Email: "new.starter@example.com", Draft: true}
	require.NoError(t, a.store.Users().Create(context.Background(), provisioned))
	c := a.client(t)

	resp, _ := c.post("/auth/register", url.Values{
		"email":            {"new.starter@example.com"},
		"password":         {"long-enough-password"},
		"confirm_password": {"long-enough-password"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := c.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Your account is ready.")

	resp, _ = c.post("/auth/register", url.Values{"email": {"nobody@example.com"}, "password": {"x"}, "confirm_password": {"x"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode, "logged in users are sent away from register")
}

func TestRegisterRejectsUnknownAccount(t *testing.T) {
	a := newTestApp(t)
	c := a.client(t)

	resp, body := c.post("/auth/register", url.Values{
		"email":            {"nobody@example.com"},
		"password":         {"long-enough-password"},
		"confirm_password": {"long-enough-password"},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, services.ErrUnknownAccount.Error())

	resp, _ = c.get("/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestLoginFailureShowsError(t *testing.T) {
	a := newTestApp(t)
	a.user(t, "ada@example.com")
	c := a.client(t)

	resp, _ := c.post("/auth/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong-password"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	_, body := c.get("/auth/login")
	assert.Contains(t, body, services.ErrInvalidCredentials.Error())
}

func TestIndexListsPublishedMasterclasses(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	published := a.published(t, u, "Intro to Go")
	c := a.client(t)
	c.login(u.Email)

	resp, body := c.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Intro to Go")
	assert.Contains(t, body, "/masterclass/"+id(published.ID))
}

func TestWizardAttachExistingContent(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	content := &models.MasterclassContent{Name: "Data pipelines", Description: "Moving data", Category: "Data"}
	require.NoError(t, a.store.Contents().Create(context.Background(), content))
	other := &models.MasterclassContent{Name: "Service design", Description: "Services", Category: "User-Centred Design"}
	require.NoError(t, a.store.Contents().Create(context.Background(), other))

	c := a.client(t)
	c.login(u.Email)

	resp, _ := c.post("/create-masterclass", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/create-masterclass/content/category", resp.Header.Get("Location"))

	resp, body := c.post("/create-masterclass/content/category", url.Values{"category": {"Data"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Data pipelines")
	assert.NotContains(t, body, "Service design")

	resp, _ = c.post("/create-masterclass/content/new-or-existing", url.Values{"content": {id(content.ID)}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	drafts, err := a.store.Masterclasses().FindDraftsByInstructor(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.NotNil(t, drafts[0].MasterclassContentID)
	assert.Equal(t, content.ID, *drafts[0].MasterclassContentID)
}

func TestWizardCategoryRequired(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	c.post("/create-masterclass", nil)
	resp, body := c.post("/create-masterclass/content/category", url.Values{"category": {""}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, `data-error="true"`)
}

func TestWizardInPersonDetailsRequired(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	require.NoError(t, a.store.Locations().Create(context.Background(), &models.Location{Name: "Test building", Address: "1 Road, London"}))
	c := a.client(t)
	c.login(u.Email)

	c.post("/create-masterclass", nil)

	resp, _ := c.post("/create-masterclass/location/type", url.Values{"location_type": {"in person"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/create-masterclass/location/search", resp.Header.Get("Location"))

	resp, _ = c.post("/create-masterclass/location/search", url.Values{"query": {"test building"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/create-masterclass/location/search/results", resp.Header.Get("Location"))

	resp, body := c.get("/create-masterclass/location/search/results")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Test building")

	resp, _ = c.post("/create-masterclass/location/search/results", url.Values{"location": {"0"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/create-masterclass/location/details", resp.Header.Get("Location"))

	resp, body = c.post("/create-masterclass/location/details", url.Values{"room": {""}, "floor": {""}})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, `data-error="true"`)
	assert.Contains(t, body, `data-field="room"`)
	assert.Contains(t, body, `data-field="floor"`)

	resp, _ = c.post("/create-masterclass/location/details", url.Values{"room": {"4.01"}, "floor": {"4"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestWizardWithoutStateRestarts(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	resp, _ := c.get("/create-masterclass/schedule")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/create-masterclass", resp.Header.Get("Location"))

	_, body := c.get("/create-masterclass")
	assert.Contains(t, body, services.ErrWizardStateMissing.Error())
}

func TestWizardPageFailureRendersStartWithError(t *testing.T) {
	a := newTestAppWith(t, "", func(w services.IWizardService) services.IWizardService {
		return contentUnavailable{IWizardService: w}
	})
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	c.post("/create-masterclass", nil)
	resp, _ := c.post("/create-masterclass/content/category", url.Values{"category": {"Data"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := c.get("/create-masterclass/content/new-or-existing")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, `data-error="true"`)
	assert.Contains(t, body, `action="/create-masterclass"`)
	assert.NotContains(t, body, "content store unavailable")
}

func TestBookMasterclass(t *testing.T) {
	a := newTestApp(t)
	instructor := a.user(t, "grace@example.com")
	attendee := a.user(t, "ada@example.com")
	m := a.published(t, instructor, "Intro to Go")
	c := a.client(t)
	c.login(attendee.Email)

	resp, body := c.get("/masterclass/" + id(m.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Intro to Go")

	resp, _ = c.post("/masterclass/"+id(m.ID), nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/signup-confirmation?masterclass_id="+id(m.ID), resp.Header.Get("Location"))

	resp, body = c.get("/signup-confirmation?masterclass_id=" + id(m.ID))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Intro to Go")

	resp, _ = c.post("/masterclass/"+id(m.ID), nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/masterclass/"+id(m.ID), resp.Header.Get("Location"))
	assert.Equal(t, 1, a.store.AttendeeCount(attendee.ID, m.ID))

	resp, body = c.get("/my-masterclasses")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Intro to Go")
}

func TestUnknownMasterclassIsNotFound(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	for _, path := range []string{"/masterclass/9999", "/masterclass/abc", "/signup-confirmation?masterclass_id=9999"} {
		resp, _ := c.get(path)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}
	resp, _ := c.post("/masterclass/9999", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDraftHiddenFromOtherUsers(t *testing.T) {
	a := newTestApp(t)
	instructor := a.user(t, "grace@example.com")
	other := a.user(t, "ada@example.com")
	draft := &models.Masterclass{InstructorID: &instructor.ID, Draft: true}
	require.NoError(t, a.store.Masterclasses().Create(context.Background(), draft))

	c := a.client(t)
	c.login(other.Email)
	resp, _ := c.get("/masterclass/" + id(draft.ID))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = c.post("/masterclass/"+id(draft.ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	a := newTestApp(t)
	resp, _ := a.client(t).get("/nowhere")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	a := newTestApp(t)
	u := a.user(t, "ada@example.com")
	c := a.client(t)
	c.login(u.Email)

	resp, _ := c.get("/auth/logout")
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, _ = c.get("/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
}

// published stores a published online masterclass teaching name.
func (a *testApp) published(t *testing.T, instructor *models.User, name string) *models.Masterclass {
	t.Helper()
	content := &models.MasterclassContent{Name: name, Description: name + " description", Category: "Technical"}
	require.NoError(t, a.store.Contents().Create(context.Background(), content))
	start := time.Now().Add(48 * time.Hour)
	capacity := 10
	m := &models.Masterclass{
		InstructorID:         &instructor.ID,
		MasterclassContentID: &content.ID,
		Timestamp:            &start,
		MaxAttendees:         &capacity,
	}
	m.SetRemoteDetails(models.RemoteDetails{URL: "https://meet.example.com/go"})
	require.NoError(t, a.store.Masterclasses().Create(context.Background(), m))
	return m
}
