package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"entryblog/internal/domain"
	"entryblog/internal/repository"
	"entryblog/internal/repository/sqlite"
	"entryblog/internal/service"
	"entryblog/internal/session"
)

type testApp struct {
	router   *gin.Engine
	entries  repository.EntryRepository
	users    service.UserService
	sessions *session.Manager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	entryRepo := sqlite.NewEntryRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, entryRepo.Init(ctx))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := service.NewUserService(userRepo, bcrypt.MinCost)
	sessions := session.NewManager("test-secret", "entryblog", time.Hour)
	h := NewHandler(service.NewEntryService(entryRepo), users, sessions, logger, false)

	router := gin.New()
	router.Use(gin.Recovery())
	h.RegisterRoutes(router)

	return &testApp{router: router, entries: entryRepo, users: users, sessions: sessions}
}

func (a *testApp) addUser(t *testing.T, name, email string) domain.Identity {
	t.Helper()
	user, err := a.users.Register(context.Background(), name, email, "test")
	require.NoError(t, err)
	return domain.IdentityOf(user)
}

func (a *testApp) cookieFor(t *testing.T, who domain.Identity) *http.Cookie {
	t.Helper()
	token, _, err := a.sessions.Issue(who.UserID)
	require.NoError(t, err)
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func (a *testApp) addEntry(t *testing.T, who domain.Identity, title, content string) *domain.Entry {
	t.Helper()
	entry := &domain.Entry{Title: title, Content: content, AuthorID: who.UserID}
	_, err := a.entries.Create(context.Background(), entry)
	require.NoError(t, err)
	return entry
}

func (a *testApp) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func location(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return u
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func (a *testApp) count(t *testing.T) int {
	t.Helper()
	n, err := a.entries.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestAddEntry(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")

	rec := app.do(t, http.MethodPost, "/entry/add", url.Values{
		"title":   {"Test Entry"},
		"content": {"Test content"},
	}, app.cookieFor(t, alice))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", location(t, rec).Path)

	list, err := app.entries.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Test Entry", list[0].Title)
	assert.Equal(t, "Test content", list[0].Content)
	assert.Equal(t, alice.UserID, list[0].AuthorID)
}

func TestAddEntry_BlankTitleRerendersForm(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")

	rec := app.do(t, http.MethodPost, "/entry/add", url.Values{"title": {" "}, "content": {"body"}}, app.cookieFor(t, alice))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title is required")
	assert.Zero(t, app.count(t))
}

func TestLoggedOutMutationsRedirectToLogin(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	entry := app.addEntry(t, alice, "Title", "body")

	for _, target := range []string{
		"/entry/add",
		fmt.Sprintf("/entry/%d/edit", entry.ID),
		fmt.Sprintf("/entry/%d/delete", entry.ID),
	} {
		rec := app.do(t, http.MethodPost, target, url.Values{"title": {"x"}, "content": {"x"}})
		require.Equal(t, http.StatusFound, rec.Code, target)
		loc := location(t, rec)
		assert.Equal(t, "/login", loc.Path, target)
		assert.Equal(t, target, loc.Query().Get("next"), target)
	}

	assert.Equal(t, 1, app.count(t))
	stored, err := app.entries.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", stored.Content)
}

func TestLoggedOutFormsRedirectToLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/entry/add", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", location(t, rec).Path)
	assert.Equal(t, "/entry/add", location(t, rec).Query().Get("next"))
}

func TestEditEntry(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	entry := app.addEntry(t, alice, "Test Entry", "Test content")
	cookie := app.cookieFor(t, alice)

	form := app.do(t, http.MethodGet, fmt.Sprintf("/entry/%d/edit", entry.ID), nil, cookie)
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), "Test content")

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/entry/%d/edit", entry.ID), url.Values{
		"content": {"Updated test content"},
		"title":   {"ignored"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", location(t, rec).Path)

	stored, err := app.entries.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Entry", stored.Title)
	assert.Equal(t, "Updated test content", stored.Content)
	assert.Equal(t, alice.UserID, stored.AuthorID)
}

func TestNonOwnerIsRedirectedHome(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	bob := app.addUser(t, "Bob", "bob@example.com")
	entry := app.addEntry(t, alice, "Test Entry", "Test content")
	cookie := app.cookieFor(t, bob)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/entry/%d/edit"},
		{http.MethodPost, "/entry/%d/edit"},
		{http.MethodGet, "/entry/%d/delete"},
		{http.MethodPost, "/entry/%d/delete"},
	} {
		target := fmt.Sprintf(tc.path, entry.ID)
		rec := app.do(t, tc.method, target, url.Values{"content": {"hijacked"}}, cookie)
		require.Equal(t, http.StatusFound, rec.Code, target)
		assert.Equal(t, "/", location(t, rec).Path, target)
	}

	stored, err := app.entries.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test content", stored.Content)
}

func TestDeleteEntry(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	entry := app.addEntry(t, alice, "Test Entry", "Test content")
	cookie := app.cookieFor(t, alice)

	confirm := app.do(t, http.MethodGet, fmt.Sprintf("/entry/%d/delete", entry.ID), nil, cookie)
	require.Equal(t, http.StatusOK, confirm.Code)
	assert.Contains(t, confirm.Body.String(), "Test Entry")

	rec := app.do(t, http.MethodPost, fmt.Sprintf("/entry/%d/delete", entry.ID), nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", location(t, rec).Path)
	assert.Zero(t, app.count(t))

	view := app.do(t, http.MethodGet, fmt.Sprintf("/entry/%d", entry.ID), nil)
	assert.Equal(t, http.StatusNotFound, view.Code)

	list := app.do(t, http.MethodGet, "/", nil)
	assert.NotContains(t, list.Body.String(), "Test Entry")
}

func TestMissingEntryIsNotFound(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	cookie := app.cookieFor(t, alice)

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/entry/999", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/entry/abc", nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/entry/999/edit", nil, cookie).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPost, "/entry/999/delete", nil, cookie).Code)
}

func TestViewEntryIsPublic(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	entry := app.addEntry(t, alice, "Hello", "some *markdown*")

	rec := app.do(t, http.MethodGet, fmt.Sprintf("/entry/%d", entry.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hello")
	assert.Contains(t, body, "<em>markdown</em>")
	assert.Contains(t, body, "Alice")
	assert.NotContains(t, body, "/edit")

	owner := app.do(t, http.MethodGet, fmt.Sprintf("/entry/%d", entry.ID), nil, app.cookieFor(t, alice))
	assert.Contains(t, owner.Body.String(), fmt.Sprintf("/entry/%d/edit", entry.ID))
}

func TestListing_Pagination(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		entry := &domain.Entry{
			Title:     fmt.Sprintf("Entry-%02d", i),
			AuthorID:  alice.UserID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		_, err := app.entries.Create(context.Background(), entry)
		require.NoError(t, err)
	}

	first := app.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, first.Code)
	body := first.Body.String()
	assert.Contains(t, body, "Entry-12")
	assert.Contains(t, body, "Entry-03")
	assert.NotContains(t, body, "Entry-02")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Contains(t, body, "/page/2/?limit=10")

	second := app.do(t, http.MethodGet, "/page/2/", nil)
	require.Equal(t, http.StatusOK, second.Code)
	body = second.Body.String()
	assert.Contains(t, body, "Entry-02")
	assert.Contains(t, body, "Entry-01")
	assert.NotContains(t, body, "Entry-03")
	assert.Contains(t, body, "/page/1/?limit=10")

	limited := app.do(t, http.MethodGet, "/page/3/?limit=5", nil)
	require.Equal(t, http.StatusOK, limited.Code)
	body = limited.Body.String()
	assert.Contains(t, body, "Entry-02")
	assert.Contains(t, body, "Page 3 of 3")

	for _, bad := range []string{"0", "-1", "abc", "51"} {
		rec := app.do(t, http.MethodGet, "/?limit="+bad, nil)
		require.Equal(t, http.StatusOK, rec.Code, bad)
		assert.Contains(t, rec.Body.String(), "Page 1 of 2", bad)
	}

	for _, far := range []string{"/page/9/", "/page/1844674407370955163/", "/page/-1844674407370955163/"} {
		rec := app.do(t, http.MethodGet, far, nil)
		require.Equal(t, http.StatusOK, rec.Code, far)
		assert.Contains(t, rec.Body.String(), "No entries.", far)
		assert.NotContains(t, rec.Body.String(), "Entry-", far)
	}

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/page/two/", nil).Code)
}

func TestListing_Empty(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No entries.")
	assert.Contains(t, rec.Body.String(), "Log in")
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")

	rec := app.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"test"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", location(t, rec).Path)

	cookie := responseCookie(rec, sessionCookie)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	uid, err := app.sessions.Parse(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, uid)

	home := app.do(t, http.MethodGet, "/", nil, cookie)
	assert.Contains(t, home.Body.String(), "Signed in as Alice")
}

func TestLogin_FollowsNext(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "Alice", "alice@example.com")
	form := url.Values{"email": {"alice@example.com"}, "password": {"test"}}

	rec := app.do(t, http.MethodPost, "/login?next="+url.QueryEscape("/entry/add"), form)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/entry/add", rec.Header().Get("Location"))

	offsite := app.do(t, http.MethodPost, "/login?next="+url.QueryEscape("//evil.example.com/"), form)
	require.Equal(t, http.StatusFound, offsite.Code)
	assert.Equal(t, "/", offsite.Header().Get("Location"))
}

func TestLogin_BadCredentials(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "Alice", "alice@example.com")

	for _, form := range []url.Values{
		{"email": {"nobody@example.com"}, "password": {"test"}},
		{"email": {"alice@example.com"}, "password": {"wrong"}},
	} {
		rec := app.do(t, http.MethodPost, "/login", form)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", location(t, rec).Path)

		if c := responseCookie(rec, sessionCookie); c != nil {
			assert.Empty(t, c.Value, "no session must be established")
		}

		flashed := responseCookie(rec, flashCookie)
		require.NotNil(t, flashed)
		page := app.do(t, http.MethodGet, "/login", nil, flashed)
		assert.Contains(t, page.Body.String(), msgBadCredentials)
	}
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	alice := app.addUser(t, "Alice", "alice@example.com")

	for _, cookies := range [][]*http.Cookie{{app.cookieFor(t, alice)}, nil} {
		rec := app.do(t, http.MethodGet, "/logout", nil, cookies...)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", location(t, rec).Path)

		cleared := responseCookie(rec, sessionCookie)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	}
}

func TestStaleSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	ghost := app.cookieFor(t, domain.Identity{UserID: 4242, Name: "Ghost"})
	rec := app.do(t, http.MethodGet, "/entry/add", nil, ghost)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", location(t, rec).Path)

	forged := &http.Cookie{Name: sessionCookie, Value: "not-a-token"}
	rec = app.do(t, http.MethodGet, "/", nil, forged)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in")
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/entry/add", safeNext("/entry/add"))
	assert.Equal(t, "/page/2/?limit=5", safeNext("/page/2/?limit=5"))
	for _, bad := range []string{"", "http://evil.example.com", "//evil.example.com", "/\\evil", "entry/add"} {
		assert.Empty(t, safeNext(bad), bad)
	}
}
