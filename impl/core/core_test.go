package core

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/entity"
)

type resetter struct{ users []int64 }

func (r *resetter) Reset(user int64) { r.users = append(r.users, user) }

type repo struct{}

func (repo) FindTrip(_ context.Context, id int64) (*entity.Trip, error) {
	return &entity.Trip{ID: id}, nil
}

func TestCoreWithoutCollaborators(t *testing.T) {
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.ResetSessions(1)
	trip, err := c.FindTrip(context.Background(), 1)
	assert.NoError(t, err)
	assert.Nil(t, trip)
}

func TestCoreDelegates(t *testing.T) {
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := &resetter{}
	c.SetSessionResetter(r)
	c.SetRepository(repo{})

	c.ResetSessions(9)
	assert.Equal(t, []int64{9}, r.users)

	trip, err := c.FindTrip(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), trip.ID)
}
