package stats

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nvoropaev/venue-till/internal/common"
)

// Handler serves the admin statistics endpoint.
type Handler struct {
	Service Service
	Logger  zerolog.Logger
}

// Overview handles GET /statistics.
func (h Handler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Service.Overview(r.Context())
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			h.Logger.Error().Err(appErr.Err).Str("code", appErr.Code).Msg("statistics overview failed")
			common.JSONError(w, appErr.HTTPStatus, appErr.Message)
			return
		}
		h.Logger.Error().Err(err).Msg("statistics overview failed")
		common.JSONError(w, http.StatusInternalServerError, "could not load shift statistics")
		return
	}
	common.JSON(w, http.StatusOK, overview)
}
