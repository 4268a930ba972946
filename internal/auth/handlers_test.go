package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nvoropaev/venue-till/internal/auth"
	"github.com/nvoropaev/venue-till/internal/session"
	"github.com/nvoropaev/venue-till/internal/shift"
)

type memShiftRepo struct {
	saved       []shift.Shift
	lastClosing float64
	hasHistory  bool
	lastErr     error
}

func (m *memShiftRepo) SaveShift(_ context.Context, s shift.Shift) error {
	m.saved = append(m.saved, s)
	return nil
}

func (m *memShiftRepo) List(context.Context) ([]shift.Shift, error) {
	return m.saved, nil
}

func (m *memShiftRepo) LastClosingCash(context.Context) (float64, bool, error) {
	return m.lastClosing, m.hasHistory, m.lastErr
}

func newHandler(t *testing.T, shifts *memShiftRepo) (*auth.Handler, *memUserRepo) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newMemUserRepo()
	return &auth.Handler{
		Service:      &auth.Service{Users: users},
		Sessions:     &session.Store{R: client},
		Ledger:       shift.NewLedger(),
		Shifts:       shifts,
		OpeningFloat: 50,
		CookieName:   "venue_session",
		Validate:     validator.New(),
	}, users
}

func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestLoginOpensShiftWithChainedCash(t *testing.T) {
	shifts := &memShiftRepo{lastClosing: 123.5, hasHistory: true}
	handler, users := newHandler(t, shifts)
	seedUser(t, users, "kate", "letmein-12345", false)

	rr := postForm(handler.Login, "/login", url.Values{"username": {"kate"}, "password": {"letmein-12345"}})
	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "/", rr.Header().Get("Location"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "venue_session", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)

	current, ok := handler.Ledger.Current()
	require.True(t, ok)
	require.Equal(t, 123.5, current.OpeningCash)
}

func TestLoginUsesFloatWithoutHistory(t *testing.T) {
	handler, users := newHandler(t, &memShiftRepo{})
	seedUser(t, users, "kate", "letmein-12345", false)

	rr := postForm(handler.Login, "/login", url.Values{"username": {"kate"}, "password": {"letmein-12345"}})
	require.Equal(t, http.StatusFound, rr.Code)

	current, ok := handler.Ledger.Current()
	require.True(t, ok)
	require.Equal(t, 50.0, current.OpeningCash)
}

func TestLoginFailsWhenChainLookupFails(t *testing.T) {
	// A broken history lookup must not silently seed the shift from the
	// configured float: the opening balance chains from the last close.
	shifts := &memShiftRepo{lastErr: errors.New("connection refused")}
	handler, users := newHandler(t, shifts)
	seedUser(t, users, "kate", "letmein-12345", false)

	rr := postForm(handler.Login, "/login", url.Values{"username": {"kate"}, "password": {"letmein-12345"}})
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error":"could not open shift"}`, rr.Body.String())
	require.False(t, handler.Ledger.IsOpen())
}

func TestLoginRejected(t *testing.T) {
	handler, users := newHandler(t, &memShiftRepo{})
	seedUser(t, users, "kate", "letmein-12345", false)

	rr := postForm(handler.Login, "/login", url.Values{"username": {"kate"}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Wrong username or password", body["error"])
	require.False(t, handler.Ledger.IsOpen())
}

func TestLoginReusesOpenShift(t *testing.T) {
	handler, users := newHandler(t, &memShiftRepo{})
	seedUser(t, users, "kate", "letmein-12345", false)

	require.NoError(t, handler.Ledger.Open(200))
	require.NoError(t, handler.Ledger.RecordDischarge(10, "supplies"))

	rr := postForm(handler.Login, "/login", url.Values{"username": {"kate"}, "password": {"letmein-12345"}})
	require.Equal(t, http.StatusFound, rr.Code)

	current, ok := handler.Ledger.Current()
	require.True(t, ok)
	require.Equal(t, 200.0, current.OpeningCash)
	require.Equal(t, 10.0, current.Outcome)
}

func TestSignRegistersUser(t *testing.T) {
	handler, users := newHandler(t, &memShiftRepo{})

	rr := postForm(handler.Sign, "/sign", url.Values{
		"username": {"bob"},
		"password": {"password-one"},
		"is_admin": {"on"},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "User successfully registered", body["data"])

	stored, err := users.GetByUsername(context.Background(), "bob")
	require.NoError(t, err)
	require.True(t, stored.IsAdmin)
}

func TestSignDuplicateUsername(t *testing.T) {
	handler, users := newHandler(t, &memShiftRepo{})
	seedUser(t, users, "bob", "password-one", false)

	rr := postForm(handler.Sign, "/sign", url.Values{"username": {"bob"}, "password": {"password-two"}})
	require.Equal(t, http.StatusConflict, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Username is already taken", body["data"])
}
