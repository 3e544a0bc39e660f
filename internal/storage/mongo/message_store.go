package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDatabase = "board"
	collectionName  = "posts"
)

// newestFirst orders by creation time; ObjectIDs grow with insertion, so
// _id breaks ties within the same millisecond.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// post is the stored document; field names follow existing posts collections.
type post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Author    string             `bson:"author"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (p post) toDomain() domain.Message {
	return domain.Message{
		ID:        p.ID.Hex(),
		Author:    p.Author,
		Title:     p.Title,
		Body:      p.Message,
		CreatedAt: p.CreatedAt,
	}
}

type MessageStore struct {
	client *mongo.Client
	coll   *mongo.Collection

	mu      sync.Mutex
	indexed bool
}

// New builds a client for uri. The driver dials lazily, so an unreachable
// server only shows up as a warning here.
func New(ctx context.Context, uri string) (*MessageStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	s := &MessageStore{
		client: client,
		coll:   client.Database(databaseFromURI(uri)).Collection(collectionName),
	}

	if err := s.Ping(ctx); err != nil {
		slog.Warn("mongo unreachable at startup", "err", err)
	}
	return s, nil
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		return db
	}
	return defaultDatabase
}

func (s *MessageStore) ensureIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexed {
		return nil
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: newestFirst,
	})
	if err != nil {
		return fmt.Errorf("create createdAt index: %w", err)
	}
	s.indexed = true
	return nil
}

func (s *MessageStore) Insert(ctx context.Context, in domain.MessageInput) (*domain.Message, error) {
	doc := post{
		Title:   in.Title,
		Author:  in.Author,
		Message: in.Body,
		// bson dates carry milliseconds
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	doc.ID = oid

	return lo.ToPtr(doc.toDomain()), nil
}

func (s *MessageStore) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	if err := s.ensureIndex(ctx); err != nil {
		slog.Warn("mongo index not ready", "err", err)
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	var docs []post
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return lo.Map(docs, func(p post, _ int) domain.Message { return p.toDomain() }), nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	_, err = s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *MessageStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MessageStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}
