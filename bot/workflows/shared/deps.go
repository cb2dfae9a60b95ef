package shared

import (
	"context"
	"log/slog"
	"time"

	"TripBot/bot/workflow"
	"TripBot/entity"
)

// Users is the user repository as the flows see it. Find methods return nil
// without error when nothing matches.
type Users interface {
	FindUser(ctx context.Context, id int64) (*entity.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	FindUserByHandle(ctx context.Context, handle string) (*entity.User, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	SaveUser(ctx context.Context, user *entity.User) error
}

type Trips interface {
	FindTrip(ctx context.Context, id int64) (*entity.Trip, error)
	SaveTrip(ctx context.Context, trip *entity.Trip) error
	FindTripsByMember(ctx context.Context, user int64, archived bool, page, size int) ([]entity.Trip, error)
	CountTripsByMember(ctx context.Context, user int64, archived bool) (int, error)
	FindTripByNote(ctx context.Context, note *entity.Note) (*entity.Trip, error)
}

type Notes interface {
	FindNote(ctx context.Context, id int64) (*entity.Note, error)
	SaveNote(ctx context.Context, note *entity.Note) error
	DeleteNote(ctx context.Context, id int64) error
	FindVisibleNotes(ctx context.Context, tripID, requester int64, page, size int) ([]entity.Note, error)
	CountVisibleNotes(ctx context.Context, tripID, requester int64) (int, error)
}

// Geocoder answers entity.UnknownCity when it cannot resolve the input.
type Geocoder interface {
	CatalogCity(name string) (entity.City, bool)
	CityFromText(ctx context.Context, name string) entity.City
	CityFromCoordinates(ctx context.Context, lat, lon float64) entity.City
}

// Deps bundles what every flow needs.
type Deps struct {
	Users Users
	Trips Trips
	Notes Notes
	Geo   Geocoder
	Async *workflow.Async
	Now   func() time.Time
	Log   *slog.Logger
}
