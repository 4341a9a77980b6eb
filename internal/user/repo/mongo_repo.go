package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
)

// UsersCollection is the collection MongoUserRepo reads and writes.
const UsersCollection = "users"

// MongoUserRepo stores users as documents keyed by user id.
// Emails are stored normalised, so the unique index enforces one account per address.
type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(coll *mongo.Collection) *MongoUserRepo {
	return &MongoUserRepo{coll: coll}
}

// EnsureIndexes creates the unique email index (idempotent).
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	})
	return err
}

func (r *MongoUserRepo) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// UpdatePasswordHash is a single-document conditional update: the filter pins
// the credential version that was read, so a concurrent writer makes it miss.
func (r *MongoUserRepo) UpdatePasswordHash(ctx context.Context, id string, expectedVersion int64, hash string) error {
	now := time.Now().UTC()
	filter := bson.D{{Key: "_id", Value: id}, {Key: "credential_version", Value: expectedVersion}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: hash},
			{Key: "password_updated_at", Value: now},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$inc", Value: bson.D{{Key: "credential_version", Value: 1}}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflictRetry
	}
	return nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.D) (*entity.User, error) {
	var u entity.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
