package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TripBot/entity"
)

func (m *MongoDB) SaveNote(ctx context.Context, note *entity.Note) error {
	if note.ID == 0 {
		id, err := m.nextID(ctx, notesCollection)
		if err != nil {
			return err
		}
		note.ID = id
	}
	_, err := m.collection(notesCollection).ReplaceOne(ctx,
		bson.D{{"_id", note.ID}},
		note,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb replace error: %w", err)
	}
	return nil
}

func (m *MongoDB) FindNote(ctx context.Context, id int64) (*entity.Note, error) {
	var note entity.Note
	err := m.collection(notesCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&note)
	if err != nil {
		return nil, m.findError(err)
	}
	return &note, nil
}

func (m *MongoDB) DeleteNote(ctx context.Context, id int64) error {
	_, err := m.collection(notesCollection).DeleteOne(ctx, bson.D{{"_id", id}})
	if err != nil {
		return fmt.Errorf("mongodb delete error: %w", err)
	}
	return nil
}

func visibleFilter(tripID, requester int64) bson.D {
	return bson.D{
		{"trip_id", tripID},
		{"$or", bson.A{
			bson.D{{"visibility", entity.Public}},
			bson.D{{"owner_id", requester}},
		}},
	}
}

// FindVisibleNotes pages the trip's public notes plus the requester's private
// ones, oldest first.
func (m *MongoDB) FindVisibleNotes(ctx context.Context, tripID, requester int64, page, size int) ([]entity.Note, error) {
	opts := options.Find().
		SetSort(bson.D{{"created_at", 1}, {"_id", 1}}).
		SetSkip(int64(page * size)).
		SetLimit(int64(size))

	cursor, err := m.collection(notesCollection).Find(ctx, visibleFilter(tripID, requester), opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	notes := make([]entity.Note, 0, size)
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}
	return notes, nil
}

func (m *MongoDB) CountVisibleNotes(ctx context.Context, tripID, requester int64) (int, error) {
	n, err := m.collection(notesCollection).CountDocuments(ctx, visibleFilter(tripID, requester))
	if err != nil {
		return 0, fmt.Errorf("mongodb count error: %w", err)
	}
	return int(n), nil
}
