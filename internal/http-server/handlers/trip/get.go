package trip

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"TripBot/entity"
	"TripBot/internal/lib/api/response"
	"TripBot/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	FindTrip(ctx context.Context, id int64) (*entity.Trip, error)
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.trip"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid trip id"))
			return
		}

		trip, err := handler.FindTrip(r.Context(), id)
		if err != nil {
			logger.Error("find trip", slog.Int64("trip_id", id), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load trip"))
			return
		}
		if trip == nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Trip not found"))
			return
		}

		render.JSON(w, r, response.Ok(trip))
	}
}
