package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/repo"
	"github.com/nvoropaev/venue-till/internal/session"
	"github.com/nvoropaev/venue-till/internal/shift"
)

// Handler exposes the login and registration endpoints. A successful login
// opens the till shift; registration is reachable only through the admin gate.
type Handler struct {
	Service        *Service
	Sessions       *session.Store
	Ledger         *shift.Ledger
	Shifts         repo.ShiftRepo
	OpeningFloat   float64
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	Validate       *validator.Validate
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type signForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	IsAdmin  bool
}

// LoginForm handles GET /login.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := common.SessionFrom(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	common.JSONData(w, http.StatusOK, "Please enter your login")
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.Validate.Struct(form); err != nil {
		common.JSONError(w, http.StatusUnauthorized, msgWrongCredentials)
		return
	}

	user, err := h.Service.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.Sessions.Create(r.Context(), common.SessionInfo{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	h.setSessionCookie(w, token)

	// The opening balance chains from the previous close; the first shift
	// ever starts from the configured float. A shift left open by an
	// expired session is reused, not reset.
	if !h.Ledger.IsOpen() {
		opening := h.OpeningFloat
		amount, ok, err := h.Shifts.LastClosingCash(r.Context())
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "could not open shift")
			return
		}
		if ok {
			opening = amount
		}
		if err := h.Ledger.Open(opening); err != nil && !errors.Is(err, shift.ErrShiftOpen) {
			common.JSONError(w, http.StatusInternalServerError, "could not open shift")
			return
		}
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// SignForm handles GET /sign (admin only).
func (h *Handler) SignForm(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, "Please enter your data")
}

// Sign handles POST /sign (admin only).
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	form := signForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		IsAdmin:  parseCheckbox(r.PostFormValue("is_admin")),
	}
	if err := h.Validate.Struct(form); err != nil {
		common.JSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if _, err := h.Service.Register(r.Context(), form.Username, form.Password, form.IsAdmin); err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "USERNAME_TAKEN" {
			// The original surface reports the duplicate under "data".
			common.JSONData(w, appErr.HTTPStatus, appErr.Message)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, "User successfully registered")
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, message)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Domain:   h.CookieDomain,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
