package health

import (
	"net/http"
	"time"

	"TripBot/internal/lib/api/response"

	"github.com/go-chi/render"
)

type Status struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func Check(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(Status{
			Status: "ok",
			Uptime: time.Since(started).Truncate(time.Second).String(),
		}))
	}
}
