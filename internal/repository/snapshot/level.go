package snapshot

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
)

const levelKeyPrefix = "snapshot/"

// LevelStore keeps each collection under its own "snapshot/<name>" key.
type LevelStore struct {
	db    *leveldb.DB
	codec codec
}

func NewLevelStore(path string, opts ...Option) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelStore{db: db, codec: newCodec(opts)}, nil
}

// NewMemLevelStore is a LevelStore backed by memory, used in tests.
func NewMemLevelStore(opts ...Option) (*LevelStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db, codec: newCodec(opts)}, nil
}

// Save writes all collections in one batch.
func (s *LevelStore) Save(ctx context.Context, snap *memory.Snapshot) error {
	docs, err := s.codec.encode(snap)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for name, doc := range docs {
		batch.Put([]byte(levelKeyPrefix+name), doc)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *LevelStore) Load(ctx context.Context) (*memory.Snapshot, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(levelKeyPrefix)), nil)
	defer iter.Release()

	docs := make(map[string][]byte)
	for iter.Next() {
		name := string(iter.Key()[len(levelKeyPrefix):])
		docs[name] = append([]byte(nil), iter.Value()...)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return s.codec.decode(docs)
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
