package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"TripBot/internal/config"
	"TripBot/internal/lib/sl"
)

const (
	usersCollection    = "users"
	tripsCollection    = "trips"
	notesCollection    = "notes"
	countersCollection = "counters"
)

type MongoDB struct {
	client   *mongo.Client
	database string
	log      *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping error: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		log:      logger.With(sl.Module("mongodb")),
	}
	if err = m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) {
	if err := m.client.Disconnect(ctx); err != nil {
		m.log.Error("disconnect", sl.Err(err))
	}
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	_, err := m.collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{"handle_lower", 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = m.collection(tripsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{"owner_id", 1}, {"archived", 1}}},
		{Keys: bson.D{{"companions", 1}, {"archived", 1}}},
	})
	if err != nil {
		return fmt.Errorf("trips index: %w", err)
	}
	_, err = m.collection(notesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{"trip_id", 1}, {"created_at", 1}},
	})
	if err != nil {
		return fmt.Errorf("notes index: %w", err)
	}
	return nil
}

// nextID hands out increasing numeric ids per sequence name; ids end up in
// callback payloads, which only carry digits.
func (m *MongoDB) nextID(ctx context.Context, sequence string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := m.collection(countersCollection).FindOneAndUpdate(ctx,
		bson.D{{"_id", sequence}},
		bson.D{{"$inc", bson.D{{"seq", int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb counter %s: %w", sequence, err)
	}
	return counter.Seq, nil
}
