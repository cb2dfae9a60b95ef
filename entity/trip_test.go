package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	berlin = City{ID: "DE-BE", Name: "Berlin", Country: "Germany"}
	paris  = City{ID: "FR-75C", Name: "Paris", Country: "France"}
	rome   = City{ID: "IT-RM", Name: "Rome", Country: "Italy"}
)

func day(d int) time.Time {
	return time.Date(2030, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestNewTrip(t *testing.T) {
	trip := NewTrip(1, "Euro Trip", []City{berlin, paris, rome}, []time.Time{day(1), day(5)})

	assert.Equal(t, []City{berlin, paris, rome}, trip.Cities())
	require.NotNil(t, trip.LeavingDate)
	assert.Equal(t, day(1), *trip.LeavingDate)
	assert.Nil(t, trip.Visits[2].LeavingDate)
	assert.Equal(t, []int64{1, 2, 3}, []int64{trip.Visits[0].ID, trip.Visits[1].ID, trip.Visits[2].ID})
	assert.Equal(t, []int64{1}, trip.Members())
}

func TestSetLeavingDate(t *testing.T) {
	trip := NewTrip(1, "Loop", []City{berlin, paris, rome}, []time.Time{day(1), day(5), day(9)})
	middle := trip.Visits[1].ID

	assert.ErrorIs(t, trip.SetLeavingDate(middle, time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)), ErrDateOrder)
	assert.ErrorIs(t, trip.SetLeavingDate(middle, day(10)), ErrDateOrder)
	assert.NoError(t, trip.SetLeavingDate(middle, day(1)))
	assert.NoError(t, trip.SetLeavingDate(middle, day(9)))
	assert.ErrorIs(t, trip.SetLeavingDate(99, day(3)), ErrNoSuchCity)

	require.NoError(t, trip.SetLeavingDate(trip.Visits[0].ID, day(1)))
	assert.Equal(t, day(1), *trip.LeavingDate)
}

func TestVisitsEditing(t *testing.T) {
	trip := NewTrip(1, "Solo", []City{berlin}, nil)
	assert.False(t, trip.CanRemoveVisit())
	assert.ErrorIs(t, trip.RemoveVisit(trip.Visits[0].ID), ErrLastVisit)

	v, err := trip.InsertAfter(trip.Visits[0].ID, paris)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.ID)
	assert.Equal(t, []City{berlin, paris}, trip.Cities())

	require.NoError(t, trip.RemoveVisit(trip.Visits[0].ID))
	assert.Equal(t, []City{paris}, trip.Cities())

	v, err = trip.InsertAfter(v.ID, rome)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.ID)
}

func TestCompanions(t *testing.T) {
	trip := NewTrip(1, "Friends", []City{rome}, nil)
	assert.False(t, trip.AddCompanion(1))
	assert.True(t, trip.AddCompanion(2))
	assert.False(t, trip.AddCompanion(2))
	assert.True(t, trip.IsMember(2))
	assert.True(t, trip.RemoveCompanion(2))
	assert.False(t, trip.RemoveCompanion(2))
	assert.False(t, trip.IsMember(2))
}

func TestCityEqual(t *testing.T) {
	assert.True(t, berlin.Equal(City{ID: "DE-BE"}))
	assert.False(t, UnknownCity.Equal(UnknownCity))
	assert.Equal(t, "Berlin, Germany", berlin.String())
}

func TestNoteVisibility(t *testing.T) {
	n := Note{OwnerID: 1, Visibility: Private}
	assert.True(t, n.VisibleTo(1))
	assert.False(t, n.VisibleTo(2))
	n.ToggleVisibility()
	assert.True(t, n.VisibleTo(2))
}
