package repository

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TripBot/entity"
)

func (m *MongoDB) SaveUser(ctx context.Context, user *entity.User) error {
	user.HandleLower = strings.ToLower(user.Handle)
	_, err := m.collection(usersCollection).ReplaceOne(ctx,
		bson.D{{"_id", user.ID}},
		user,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb upsert error: %w", err)
	}
	return nil
}

// FindUser returns nil when the user is not registered.
func (m *MongoDB) FindUser(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	err := m.collection(usersCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) FindUserByHandle(ctx context.Context, handle string) (*entity.User, error) {
	var user entity.User
	filter := bson.D{{"handle_lower", strings.ToLower(strings.TrimSpace(handle))}}
	err := m.collection(usersCollection).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) UserExists(ctx context.Context, id int64) (bool, error) {
	n, err := m.collection(usersCollection).CountDocuments(ctx, bson.D{{"_id", id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb count error: %w", err)
	}
	return n > 0, nil
}

func (m *MongoDB) HandleExists(ctx context.Context, handle string) (bool, error) {
	filter := bson.D{{"handle_lower", strings.ToLower(strings.TrimSpace(handle))}}
	n, err := m.collection(usersCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb count error: %w", err)
	}
	return n > 0, nil
}
