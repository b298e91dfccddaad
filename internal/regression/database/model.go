package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/regime/internal/database"
	"github.com/go-sod/regime/internal/regression"
)

const bucket = "models"

var ErrNotFound = errors.New("models not found")

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func key(id uuid.UUID, season string) []byte {
	return []byte(id.String() + ":" + season)
}

// SaveModels stores the per-point models of one run and season. Points that
// failed to fit are stored as null.
func (db *DB) SaveModels(_ context.Context, id uuid.UUID, season string, models []*regression.Model) error {
	bytes, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("json marshal models: %w", err)
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put(key(id, season), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) LoadModels(_ context.Context, id uuid.UUID, season string) ([]*regression.Model, error) {
	var models []*regression.Model
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(key(id, season))
		if v == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(v, &models); err != nil {
			return fmt.Errorf("json unmarshal error, %w", err)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("models %s season %q: %w", id, season, err)
	}
	return models, nil
}

// CountByRun returns how many points have a stored model.
func (db *DB) CountByRun(ctx context.Context, id uuid.UUID, season string) (int, error) {
	models, err := db.LoadModels(ctx, id, season)
	if err != nil {
		return 0, err
	}
	var n int
	for _, m := range models {
		if m != nil {
			n++
		}
	}
	return n, nil
}
