package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltImportStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltImportStorage provides an instance of bolt-based import history storage.
func NewBoltImportStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) ImportStorage {
	return &boltImportStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based import storage.
func (bs *boltImportStorage) Close() error {
	return bs.client.Close()
}

// Add inserts a new import history entry into boltdb store.
func (bs *boltImportStorage) Add(_ context.Context, id string, record ImportRecord) error {
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put([]byte(id), recordBytes)
	})
	return err
}

// GetOne retrieves an import history entry based on its ID from boltdb store.
func (bs *boltImportStorage) GetOne(_ context.Context, id string) (ImportRecord, error) {
	var record ImportRecord
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return record, err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get([]byte(id))
	if result == nil {
		return record, ErrImportNotFound
	}
	err = json.Unmarshal(result, &record)
	return record, err
}

// GetAll retrieves a list of all import history entries stored in the bolt database.
func (bs *boltImportStorage) GetAll(_ context.Context) ([]ImportRecord, error) {
	records := []ImportRecord{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).ForEach(func(_, value []byte) error {
			var record ImportRecord
			if err := json.Unmarshal(value, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes an import history entry based on its ID from boltdb store.
func (bs *boltImportStorage) Delete(_ context.Context, id string) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Delete([]byte(id))
	})
}
