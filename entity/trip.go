package entity

import (
	"errors"
	"slices"
	"time"
)

var (
	ErrLastVisit  = errors.New("trip must keep at least one city")
	ErrDateOrder  = errors.New("date breaks the itinerary order")
	ErrNoSuchCity = errors.New("city is not part of the trip")
)

// CityVisit is one stop of a trip; ID is unique within the trip.
type CityVisit struct {
	ID          int64      `json:"id" bson:"id"`
	City        City       `json:"city" bson:"city"`
	LeavingDate *time.Time `json:"leaving_date,omitempty" bson:"leaving_date,omitempty"`
}

type Trip struct {
	ID          int64       `json:"id" bson:"_id"`
	OwnerID     int64       `json:"owner_id" bson:"owner_id"`
	Name        string      `json:"name" bson:"name" validate:"required,max=100"`
	Visits      []CityVisit `json:"visits" bson:"visits"`
	Companions  []int64     `json:"companions" bson:"companions"`
	Archived    bool        `json:"archived" bson:"archived"`
	LeavingDate *time.Time  `json:"leaving_date,omitempty" bson:"leaving_date,omitempty"`
	ImageID     string      `json:"image_id,omitempty" bson:"image_id,omitempty"`
	NextVisitID int64       `json:"-" bson:"next_visit_id"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}

// NewTrip builds a trip from collected cities; dates[i] belongs to cities[i]
// and may be shorter than cities.
func NewTrip(owner int64, name string, cities []City, dates []time.Time) *Trip {
	t := &Trip{
		OwnerID:    owner,
		Name:       name,
		Companions: []int64{},
		CreatedAt:  time.Now(),
	}
	for i, c := range cities {
		v := t.newVisit(c)
		if i < len(dates) {
			d := dates[i]
			v.LeavingDate = &d
		}
		t.Visits = append(t.Visits, v)
	}
	t.refresh()
	return t
}

func (t *Trip) newVisit(c City) CityVisit {
	t.NextVisitID++
	return CityVisit{ID: t.NextVisitID, City: c}
}

func (t *Trip) refresh() {
	t.LeavingDate = nil
	for _, v := range t.Visits {
		if v.LeavingDate != nil {
			d := *v.LeavingDate
			t.LeavingDate = &d
			return
		}
	}
}

func (t *Trip) Members() []int64 {
	return append([]int64{t.OwnerID}, t.Companions...)
}

func (t *Trip) IsMember(user int64) bool {
	return t.OwnerID == user || t.IsCompanion(user)
}

func (t *Trip) IsCompanion(user int64) bool {
	return slices.Contains(t.Companions, user)
}

// AddCompanion reports false when the user is already a member.
func (t *Trip) AddCompanion(user int64) bool {
	if t.IsMember(user) {
		return false
	}
	t.Companions = append(t.Companions, user)
	return true
}

func (t *Trip) RemoveCompanion(user int64) bool {
	i := slices.Index(t.Companions, user)
	if i < 0 {
		return false
	}
	t.Companions = slices.Delete(t.Companions, i, i+1)
	return true
}

// VisitIndex returns -1 when the visit is not in the trip.
func (t *Trip) VisitIndex(visitID int64) int {
	return slices.IndexFunc(t.Visits, func(v CityVisit) bool { return v.ID == visitID })
}

// DateFits checks that date is not before any earlier visit's date and not
// after any later visit's date.
func (t *Trip) DateFits(index int, date time.Time) bool {
	for j, v := range t.Visits {
		if j == index || v.LeavingDate == nil {
			continue
		}
		if j < index && date.Before(*v.LeavingDate) {
			return false
		}
		if j > index && date.After(*v.LeavingDate) {
			return false
		}
	}
	return true
}

func (t *Trip) SetLeavingDate(visitID int64, date time.Time) error {
	i := t.VisitIndex(visitID)
	if i < 0 {
		return ErrNoSuchCity
	}
	if !t.DateFits(i, date) {
		return ErrDateOrder
	}
	t.Visits[i].LeavingDate = &date
	t.refresh()
	return nil
}

// InsertAfter adds an undated visit right after the anchor visit.
func (t *Trip) InsertAfter(anchorID int64, city City) (CityVisit, error) {
	i := t.VisitIndex(anchorID)
	if i < 0 {
		return CityVisit{}, ErrNoSuchCity
	}
	v := t.newVisit(city)
	t.Visits = slices.Insert(t.Visits, i+1, v)
	return v, nil
}

func (t *Trip) CanRemoveVisit() bool {
	return len(t.Visits) > 1
}

func (t *Trip) RemoveVisit(visitID int64) error {
	i := t.VisitIndex(visitID)
	if i < 0 {
		return ErrNoSuchCity
	}
	if !t.CanRemoveVisit() {
		return ErrLastVisit
	}
	t.Visits = slices.Delete(t.Visits, i, i+1)
	t.refresh()
	return nil
}

func (t *Trip) Cities() []City {
	cities := make([]City, len(t.Visits))
	for i, v := range t.Visits {
		cities[i] = v.City
	}
	return cities
}
