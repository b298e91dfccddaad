package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/regime/internal/database"
	"github.com/go-sod/regime/internal/geom"
	"github.com/go-sod/regime/internal/normalize"
	"github.com/go-sod/regime/internal/regime"
)

const bucket = "partitions"

var ErrNotFound = errors.New("partition not found")

// Record is a persisted weather-regime definition: the selected centroids and
// everything needed to normalize distances against them.
type Record struct {
	ID               uuid.UUID
	Season           string
	Partition        regime.Partition
	LearningVariance []float64
	Stats            normalize.Stats
	BaseSeed         uint32
	Iterations       int
	// models take one supplemental predictor after the distances
	Extra bool
}

// wireRecord is the XDR layout, centroids flattened row-major.
type wireRecord struct {
	Season           string
	NCluster         uint32
	NEOF             uint32
	Centroids        []float64
	LearningVariance []float64
	Mean             []float64
	Variance         []float64
	BaseSeed         uint32
	Iterations       uint32
	Extra            bool
}

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func key(id uuid.UUID, season string) []byte {
	return []byte(id.String() + ":" + season)
}

func (db *DB) SavePartition(_ context.Context, rec Record) error {
	buf, err := encode(rec)
	if err != nil {
		return err
	}
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put(key(rec.ID, rec.Season), buf); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) LoadPartition(_ context.Context, id uuid.UUID, season string) (*Record, error) {
	var rec *Record
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(key(id, season))
		if v == nil {
			return ErrNotFound
		}
		decoded, err := decode(v)
		if err != nil {
			return err
		}
		decoded.ID = id
		rec = decoded
		return nil
	}); err != nil {
		return nil, fmt.Errorf("partition %s season %q: %w", id, season, err)
	}
	return rec, nil
}

// Keys lists the stored "<run id>:<season>" keys.
func (db *DB) Keys() ([]string, error) {
	var keys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func encode(rec Record) ([]byte, error) {
	ncluster, neof, err := rec.Partition.Dims()
	if err != nil {
		return nil, fmt.Errorf("encode partition: %w", err)
	}
	w := wireRecord{
		Season:           rec.Season,
		NCluster:         uint32(ncluster),
		NEOF:             uint32(neof),
		Centroids:        make([]float64, 0, ncluster*neof),
		LearningVariance: rec.LearningVariance,
		Mean:             rec.Stats.Mean,
		Variance:         rec.Stats.Variance,
		BaseSeed:         rec.BaseSeed,
		Iterations:       uint32(rec.Iterations),
		Extra:            rec.Extra,
	}
	for _, c := range rec.Partition {
		w.Centroids = append(w.Centroids, c...)
	}
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, w); err != nil {
		return nil, fmt.Errorf("xdr marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(v []byte) (*Record, error) {
	var w wireRecord
	if _, err := xdr.Unmarshal(bytes.NewReader(v), &w); err != nil {
		return nil, fmt.Errorf("xdr unmarshal: %w", err)
	}
	ncluster, neof := int(w.NCluster), int(w.NEOF)
	if len(w.Centroids) != ncluster*neof {
		return nil, fmt.Errorf("stored %d coordinates for %dx%d centroids", len(w.Centroids), ncluster, neof)
	}
	partition := make(regime.Partition, ncluster)
	for c := range partition {
		partition[c] = geom.Point(append([]float64(nil), w.Centroids[c*neof:(c+1)*neof]...))
	}
	return &Record{
		Season:           w.Season,
		Partition:        partition,
		LearningVariance: w.LearningVariance,
		Stats:            normalize.Stats{Mean: w.Mean, Variance: w.Variance},
		BaseSeed:         w.BaseSeed,
		Iterations:       int(w.Iterations),
		Extra:            w.Extra,
	}, nil
}
