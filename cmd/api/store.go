package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/database"
)

const (
	storePostgres = "postgres"
	storeMongo    = "mongo"
	storeMemory   = "memory"
)

// openStore builds the user store named by kind (USER_STORE). Postgres is
// migrated and Mongo gets its indexes before the store is returned.
func openStore(ctx context.Context, kind string, logger *zap.SugaredLogger) (user.Store, func(), error) {
	switch kind {
	case "", storePostgres:
		db, err := database.Connect(database.ConfigFromEnv())
		if err != nil {
			return nil, nil, oops.Code("db_connect_failed").With("store", storePostgres).Wrap(err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, oops.Code("migration_failed").With("store", storePostgres).Wrap(err)
		}
		logger.Infow("user store ready", "store", storePostgres)
		return repo.NewUserRepo(sqlx.NewDb(db, "postgres")), func() { db.Close() }, nil

	case storeMongo:
		cfg := database.MongoConfigFromEnv()
		client, err := database.ConnectMongo(cfg)
		if err != nil {
			return nil, nil, oops.Code("db_connect_failed").With("store", storeMongo).Wrap(err)
		}
		r := repo.NewMongoUserRepo(client.Database(cfg.Database).Collection(repo.UsersCollection))
		if err := r.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, oops.Code("migration_failed").With("store", storeMongo).Wrap(err)
		}
		logger.Infow("user store ready", "store", storeMongo, "database", cfg.Database)
		return r, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}, nil

	case storeMemory:
		logger.Warn("using in-memory user store; accounts are lost on restart")
		return repo.NewMemoryUserRepo(), func() {}, nil
	}
	return nil, nil, oops.Code("config_invalid").With("store", kind).Errorf("unknown USER_STORE %q", kind)
}
