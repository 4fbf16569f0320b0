// Package storage provides the persistent result ledger for espre.
// It uses BoltDB as the underlying storage engine. Every successful scoring
// run appends one ResultRecord under its sample id, so the history of a
// sample can be read back in time order.
package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	resultsBucket = "results" // Top-level bucket, one nested bucket per sample
	DBFileName    = "espre-results.db"
)

// ResultRecord is one stored scoring outcome.
type ResultRecord struct {
	RunID        string    `json:"run_id"`
	SampleID     string    `json:"sample_id"`
	Timestamp    time.Time `json:"timestamp"`
	Probability  float64   `json:"probability"`
	Prediction   string    `json:"prediction"`
	Positive     bool      `json:"positive"`
	Flagged      bool      `json:"flagged"`
	ModelVersion string    `json:"model_version,omitempty"`
	InputPath    string    `json:"input_path,omitempty"`
	Bins         int       `json:"bins"`
	UnknownBins  int       `json:"unknown_bins"`
	MissingCols  int       `json:"missing_columns"`
}

// Store provides persistent storage for scoring results using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (creating if needed) the ledger file inside dataPath.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, DBFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(resultsBucket)); err != nil {
			return fmt.Errorf("create results bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// StoreResult appends a result under its sample id, keyed by timestamp.
// Two results for the same sample at the same nanosecond overwrite each other.
func (s *Store) StoreResult(rec ResultRecord) error {
	if rec.SampleID == "" {
		return fmt.Errorf("result has no sample id")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := tx.Bucket([]byte(resultsBucket)).CreateBucketIfNotExists([]byte(rec.SampleID))
		if err != nil {
			return fmt.Errorf("create sample bucket: %w", err)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}

		return sb.Put(timeKey(rec.Timestamp), data)
	})
}

// GetResults retrieves the results for one sample within a time range.
// The time range is inclusive of both start and end times, and the results
// are ordered by timestamp.
func (s *Store) GetResults(sampleID string, start, end time.Time) ([]ResultRecord, error) {
	var records []ResultRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket([]byte(resultsBucket)).Bucket([]byte(sampleID))
		if sb == nil {
			return nil
		}
		records = scanRange(sb, start, end)
		return nil
	})

	return records, err
}

// GetAllResults retrieves every sample's results within a time range,
// ordered by timestamp.
func (s *Store) GetAllResults(start, end time.Time) ([]ResultRecord, error) {
	var records []ResultRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(resultsBucket))
		return root.ForEach(func(name, v []byte) error {
			if v != nil {
				return nil // not a sample bucket
			}
			records = append(records, scanRange(root.Bucket(name), start, end)...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

// Samples lists the sample ids that have stored results, in byte order.
func (s *Store) Samples() ([]string, error) {
	var samples []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(resultsBucket)).ForEach(func(name, v []byte) error {
			if v == nil {
				samples = append(samples, string(name))
			}
			return nil
		})
	})
	return samples, err
}

func scanRange(b *bbolt.Bucket, start, end time.Time) []ResultRecord {
	var records []ResultRecord
	c := b.Cursor()
	endKey := timeKey(end)

	for k, v := c.Seek(timeKey(start)); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
		var rec ResultRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			continue // Skip malformed records
		}
		records = append(records, rec)
	}
	return records
}

// timeKey encodes t so that byte order equals time order. Times before the
// Unix epoch, including the zero time, map to the smallest key.
func timeKey(t time.Time) []byte {
	key := make([]byte, 8)
	var ns int64
	if t.After(time.Unix(0, 0)) {
		ns = t.UnixNano()
	}
	binary.BigEndian.PutUint64(key, uint64(ns))
	return key
}
