package session

import (
	"log/slog"
	"net/http"
	"strconv"

	"TripBot/internal/lib/api/response"
	"TripBot/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ResetSessions(user int64)
}

// Reset drops every in-flight conversation of the user given by ?user=.
func Reset(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.session"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("session reset not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Session reset not available"))
			return
		}

		user, err := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		if err != nil || user <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing or invalid user parameter"))
			return
		}

		handler.ResetSessions(user)
		logger.Info("sessions reset", sl.User(user))
		render.JSON(w, r, response.Ok("Sessions reset successfully"))
	}
}
