package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
)

const testNS = "credential.users"

func userDoc(id, email string, version int64) bson.D {
	now := time.Now().UTC()
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ann"},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "hash"},
		{Key: "credential_version", Value: version},
		{Key: "terms_accepted", Value: true},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}
}

func TestMongoUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get by email", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, userDoc("u1", "a@b.com", 2)))

		u, err := repo.GetByEmail(ctx, "a@b.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u1", u.ID)
		assert.Equal(mt, "a@b.com", u.Email)
		assert.Equal(mt, int64(2), u.CredentialVersion)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch))

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &entity.User{ID: "u1", Name: "Ann", Email: "a@b.com", PasswordHash: "hash", CredentialVersion: 1}
		require.NoError(mt, repo.Create(ctx, u))
		assert.False(mt, u.CreatedAt.IsZero())
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: credential.users index: uniq_email",
		}))

		err := repo.Create(ctx, &entity.User{ID: "u2", Email: "a@b.com"})
		assert.ErrorIs(mt, err, ErrDuplicateEmail)
	})

	mt.Run("update password hash", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, repo.UpdatePasswordHash(ctx, "u1", 1, "newhash"))
	})

	mt.Run("update password hash conflict", func(mt *mtest.T) {
		repo := NewMongoUserRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.UpdatePasswordHash(ctx, "u1", 1, "newhash")
		assert.ErrorIs(mt, err, ErrConflictRetry)
	})
}
