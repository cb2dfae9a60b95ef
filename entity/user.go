package entity

import (
	"time"
)

const (
	HandleRules   = "min=5,max=32,alphanum"
	AgeRules      = "min=0,max=100"
	BioRules      = "max=255"
	TripNameRules = "required,max=100"
	AdultAge      = 18
)

// User is a registered traveller. ID is the Telegram user id.
type User struct {
	ID          int64     `json:"id" bson:"_id"`
	Handle      string    `json:"handle" bson:"handle" validate:"required,min=5,max=32,alphanum"`
	HandleLower string    `json:"-" bson:"handle_lower"`
	City        City      `json:"city" bson:"city"`
	Age         *int      `json:"age,omitempty" bson:"age,omitempty" validate:"omitempty,min=0,max=100"`
	Bio         *string   `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=255"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

func (u *User) IsAdult() bool {
	return u.Age != nil && *u.Age >= AdultAge
}
