package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TripBot/entity"
)

// SaveTrip inserts trips without an id and replaces existing ones.
func (m *MongoDB) SaveTrip(ctx context.Context, trip *entity.Trip) error {
	if trip.ID == 0 {
		id, err := m.nextID(ctx, tripsCollection)
		if err != nil {
			return err
		}
		trip.ID = id
	}
	_, err := m.collection(tripsCollection).ReplaceOne(ctx,
		bson.D{{"_id", trip.ID}},
		trip,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb replace error: %w", err)
	}
	return nil
}

func (m *MongoDB) FindTrip(ctx context.Context, id int64) (*entity.Trip, error) {
	var trip entity.Trip
	err := m.collection(tripsCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&trip)
	if err != nil {
		return nil, m.findError(err)
	}
	return &trip, nil
}

func memberFilter(user int64, archived bool) bson.D {
	return bson.D{
		{"archived", archived},
		{"$or", bson.A{
			bson.D{{"owner_id", user}},
			bson.D{{"companions", user}},
		}},
	}
}

// FindTripsByMember pages trips the user owns or joined, earliest departure first.
func (m *MongoDB) FindTripsByMember(ctx context.Context, user int64, archived bool, page, size int) ([]entity.Trip, error) {
	opts := options.Find().
		SetSort(bson.D{{"leaving_date", 1}, {"_id", 1}}).
		SetSkip(int64(page * size)).
		SetLimit(int64(size))

	cursor, err := m.collection(tripsCollection).Find(ctx, memberFilter(user, archived), opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	trips := make([]entity.Trip, 0, size)
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}
	return trips, nil
}

func (m *MongoDB) CountTripsByMember(ctx context.Context, user int64, archived bool) (int, error) {
	n, err := m.collection(tripsCollection).CountDocuments(ctx, memberFilter(user, archived))
	if err != nil {
		return 0, fmt.Errorf("mongodb count error: %w", err)
	}
	return int(n), nil
}

func (m *MongoDB) FindTripByNote(ctx context.Context, note *entity.Note) (*entity.Trip, error) {
	return m.FindTrip(ctx, note.TripID)
}
