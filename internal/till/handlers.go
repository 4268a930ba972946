// Package till exposes the floor endpoints: the main view, visitor check-in
// and checkout, cash discharges, and closing the shift.
package till

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/obs"
	"github.com/nvoropaev/venue-till/internal/repo"
	"github.com/nvoropaev/venue-till/internal/session"
	"github.com/nvoropaev/venue-till/internal/shift"
	"github.com/nvoropaev/venue-till/internal/visitor"
)

const (
	msgNoVisitor = "There is no visitor with such id"
	msgNoShift   = "No shift is open"
)

// Handler serves the single-till floor routes. All of them run behind the
// session gate.
type Handler struct {
	Registry       *visitor.Registry
	Ledger         *shift.Ledger
	Shifts         repo.ShiftRepo
	Sessions       *session.Store
	HourlyRate     float64
	CookieName     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	Validate       *validator.Validate
	Logger         zerolog.Logger
}

type addVisitorForm struct {
	Name string `validate:"required"`
}

type dischargeForm struct {
	Amount float64 `validate:"gt=0"`
	Reason string  `validate:"required"`
}

// Main handles GET /.
func (h *Handler) Main(w http.ResponseWriter, r *http.Request) {
	sess, _ := common.SessionFrom(r.Context())
	view := map[string]any{
		"username": sess.Username,
		"is_admin": sess.IsAdmin,
		"visitors": h.Registry.List(),
	}
	if current, ok := h.Ledger.Current(); ok {
		view["shift"] = current
	} else {
		view["shift"] = nil
	}
	common.JSON(w, http.StatusOK, view)
}

// AddVisitorForm handles GET /add_visitor.
func (h *Handler) AddVisitorForm(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, "Please enter the visitor's name")
}

// AddVisitor handles POST /add_visitor.
func (h *Handler) AddVisitor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	form := addVisitorForm{Name: strings.TrimSpace(r.PostFormValue("name"))}
	if err := h.Validate.Struct(form); err != nil {
		common.JSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	h.Registry.CheckIn(form.Name)
	if obs.VisitorsPresent != nil {
		obs.VisitorsPresent.Set(float64(h.Registry.Count()))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// RemoveVisitorPreview handles GET /remove_visitor?id=. It computes the
// charge for the confirmation step without removing the visitor; an unknown
// id silently aborts back to the main view.
func (h *Handler) RemoveVisitorPreview(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	preview, err := h.Registry.CheckoutPreview(id, h.HourlyRate)
	if err != nil {
		if errors.Is(err, visitor.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "could not compute the charge")
		return
	}
	common.JSON(w, http.StatusOK, preview)
}

// RemoveVisitor handles POST /remove_visitor: the visitor pays and leaves.
func (h *Handler) RemoveVisitor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	id := strings.TrimSpace(r.PostFormValue("id"))
	paid, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("paid")), 64)
	if err != nil || paid < 0 {
		common.JSONError(w, http.StatusBadRequest, "paid must be a non-negative amount")
		return
	}
	if !h.Ledger.IsOpen() {
		common.JSONError(w, http.StatusConflict, msgNoShift)
		return
	}

	departed, err := h.Registry.FinalizeAndRemove(id, paid)
	if err != nil {
		if errors.Is(err, visitor.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, msgNoVisitor)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.Ledger.RecordPayment(departed); err != nil {
		common.JSONError(w, http.StatusConflict, msgNoShift)
		return
	}
	if obs.PaymentsTotal != nil {
		obs.PaymentsTotal.Inc()
	}
	if obs.VisitorsPresent != nil {
		obs.VisitorsPresent.Set(float64(h.Registry.Count()))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// DischargeForm handles GET /discharge.
func (h *Handler) DischargeForm(w http.ResponseWriter, _ *http.Request) {
	common.JSONData(w, http.StatusOK, "Please enter the amount and reason")
}

// Discharge handles POST /discharge.
func (h *Handler) Discharge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("amount")), 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	form := dischargeForm{Amount: amount, Reason: strings.TrimSpace(r.PostFormValue("reason"))}
	if err := h.Validate.Struct(form); err != nil {
		common.JSONError(w, http.StatusBadRequest, "a positive amount and a reason are required")
		return
	}
	if err := h.Ledger.RecordDischarge(form.Amount, form.Reason); err != nil {
		common.JSONError(w, http.StatusConflict, msgNoShift)
		return
	}
	if obs.DischargesTotal != nil {
		obs.DischargesTotal.Inc()
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// CloseShiftForm handles GET /close_shift: the shift snapshot for review
// before counting the drawer.
func (h *Handler) CloseShiftForm(w http.ResponseWriter, _ *http.Request) {
	current, ok := h.Ledger.Current()
	if !ok {
		common.JSONError(w, http.StatusConflict, msgNoShift)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"shift": current})
}

// CloseShift handles POST /close_shift. The shift is persisted first; only
// then is the session cleared. A persistence failure leaves both untouched.
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	realCash, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("real_cash")), 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "real_cash must be a number")
		return
	}

	sess, _ := common.SessionFrom(r.Context())
	if _, err := h.Ledger.Close(r.Context(), realCash, sess.Username, h.Shifts); err != nil {
		if errors.Is(err, shift.ErrNoShift) {
			common.JSONError(w, http.StatusConflict, msgNoShift)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "could not persist the shift")
		return
	}
	if obs.ShiftsClosedTotal != nil {
		obs.ShiftsClosedTotal.Inc()
	}

	// The cookie clear below invalidates the client either way; the server
	// side copy then ages out with the store TTL. Still worth a log line.
	if err := h.Sessions.Delete(r.Context(), sess.Token); err != nil {
		h.Logger.Error().Err(err).Str("user", sess.Username).Msg("delete session after shift close")
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Domain:   h.CookieDomain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}
