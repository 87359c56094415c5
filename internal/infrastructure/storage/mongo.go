package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rasmith-dev/propadmin/internal/core/ports"
)

// Mongo keeps both keys in one document per profile, which makes every
// write atomic for the pair.
type Mongo struct {
	coll    *mongo.Collection
	profile string
}

type mongoSession struct {
	Profile   string `bson:"_id"`
	Token     string `bson:"token"`
	User      string `bson:"user"`
	UpdatedAt int64  `bson:"updated_at"`
}

func NewMongo(db *mongo.Database, collection, profile string) *Mongo {
	return &Mongo{coll: db.Collection(collection), profile: profile}
}

func (m *Mongo) Load(ctx context.Context) (ports.StoredSession, error) {
	var doc mongoSession
	err := m.coll.FindOne(ctx, bson.M{"_id": m.profile}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.StoredSession{}, nil
	}
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("mongo load session: %w", err)
	}
	return ports.StoredSession{Token: doc.Token, User: doc.User}, nil
}

func (m *Mongo) Save(ctx context.Context, token, user string) error {
	doc := mongoSession{
		Profile:   m.profile,
		Token:     token,
		User:      user,
		UpdatedAt: time.Now().Unix(),
	}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": m.profile}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save session: %w", err)
	}
	return nil
}

func (m *Mongo) Clear(ctx context.Context) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": m.profile}); err != nil {
		return fmt.Errorf("mongo clear session: %w", err)
	}
	return nil
}

// Ping reports backend reachability for the readiness probe.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, nil)
}
