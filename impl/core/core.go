package core

import (
	"context"
	"log/slog"

	"TripBot/entity"
	"TripBot/internal/lib/sl"
)

type Repository interface {
	FindTrip(ctx context.Context, id int64) (*entity.Trip, error)
}

type SessionResetter interface {
	Reset(user int64)
}

// Core serves the admin API on top of the bot's router and repository.
type Core struct {
	repo     Repository
	sessions SessionResetter
	log      *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetSessionResetter(sessions SessionResetter) {
	c.sessions = sessions
}

// ResetSessions drops every in-flight conversation of the user. It is a no-op
// while the bot is not running.
func (c *Core) ResetSessions(user int64) {
	if c.sessions == nil {
		c.log.Warn("reset requested without a running bot", sl.User(user))
		return
	}
	c.sessions.Reset(user)
}

// FindTrip answers nil without error while no repository is configured.
func (c *Core) FindTrip(ctx context.Context, id int64) (*entity.Trip, error) {
	if c.repo == nil {
		return nil, nil
	}
	return c.repo.FindTrip(ctx, id)
}
