// Package bbolt implements the ports.PatternStore interface using bbolt
// (embedded B+ tree). Every pattern set gets its own bucket under the
// top-level "sets" bucket, holding a gob header and a binary pattern list.
// Writes are transactional: a crash mid-write cannot corrupt previously
// committed data.
package bbolt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/acsearch/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketSets  = []byte("sets")
	keyHeader   = []byte("header")
	keyPatterns = []byte("patterns")
)

// Store implements ports.PatternStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.PatternStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSets)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sets bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePatternSet persists set, replacing any prior set with the same name.
func (s *Store) SavePatternSet(set *ports.PatternSet) error {
	if set == nil {
		return fmt.Errorf("nil pattern set")
	}
	if set.Name == "" {
		return fmt.Errorf("pattern set name required")
	}

	header, err := encodeGob(setHeader{
		Name:         set.Name,
		Kind:         set.Kind,
		IgnoreCase:   set.IgnoreCase,
		Source:       set.Source,
		UpdatedAt:    set.UpdatedAt,
		PatternCount: len(set.Patterns),
	})
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	patterns := encodePatterns(set.Patterns)

	return s.db.Update(func(tx *bolt.Tx) error {
		sb, err := tx.Bucket(bucketSets).CreateBucketIfNotExists([]byte(set.Name))
		if err != nil {
			return err
		}
		if err := sb.Put(keyHeader, header); err != nil {
			return err
		}
		return sb.Put(keyPatterns, patterns)
	})
}

// LoadPatternSet retrieves a pattern set by name.
// Returns nil, nil if no set with that name exists.
func (s *Store) LoadPatternSet(name string) (*ports.PatternSet, error) {
	var headerData, patternData []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		sb := tx.Bucket(bucketSets).Bucket([]byte(name))
		if sb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := sb.Get(keyHeader); v != nil {
			headerData = append([]byte(nil), v...)
		}
		if v := sb.Get(keyPatterns); v != nil {
			patternData = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if headerData == nil {
		return nil, nil
	}

	var h setHeader
	if err := decodeGob(headerData, &h); err != nil {
		return nil, fmt.Errorf("decode header of %q: %w", name, err)
	}
	patterns, err := decodePatterns(patternData)
	if err != nil {
		return nil, fmt.Errorf("decode patterns of %q: %w", name, err)
	}
	if len(patterns) != h.PatternCount {
		return nil, fmt.Errorf("set %q: header says %d patterns, found %d", name, h.PatternCount, len(patterns))
	}

	return &ports.PatternSet{
		Name:       h.Name,
		Kind:       h.Kind,
		IgnoreCase: h.IgnoreCase,
		Source:     h.Source,
		UpdatedAt:  h.UpdatedAt,
		Patterns:   patterns,
	}, nil
}

// ListPatternSets returns the header of every stored set, sorted by name.
func (s *Store) ListPatternSets() ([]ports.PatternSetInfo, error) {
	var infos []ports.PatternSetInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSets).ForEachBucket(func(k []byte) error {
			v := tx.Bucket(bucketSets).Bucket(k).Get(keyHeader)
			if v == nil {
				return nil
			}
			var h setHeader
			if err := decodeGob(v, &h); err != nil {
				return fmt.Errorf("decode header of %q: %w", k, err)
			}
			infos = append(infos, ports.PatternSetInfo{
				Name:         h.Name,
				Kind:         h.Kind,
				IgnoreCase:   h.IgnoreCase,
				Source:       h.Source,
				UpdatedAt:    h.UpdatedAt,
				PatternCount: h.PatternCount,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeletePatternSet removes a set.
// Idempotent: deleting a nonexistent set is not an error.
func (s *Store) DeletePatternSet(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket(bucketSets).DeleteBucket([]byte(name))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
