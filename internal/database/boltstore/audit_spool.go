package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"mentorhub/internal/moderation"

	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

// AuditSpool persists moderation log entries that failed to reach the
// primary database so they can be replayed later.
type AuditSpool struct {
	db *bolt.DB
}

// Ensure AuditSpool implements the interface at compile time.
var _ moderation.AuditSpool = (*AuditSpool)(nil)

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Put appends an entry to the spool.
func (s *AuditSpool) Put(ctx context.Context, entry moderation.ModerationLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditSpool)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketAuditSpool)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate spool sequence: %w", err)
		}
		return bucket.Put(seqKey(seq), data)
	})
}

type spooled struct {
	key   []byte
	entry moderation.ModerationLog
}

// Replay hands each spooled entry to fn in write order and deletes the ones
// fn accepted. Entries fn rejects stay for the next replay. Entries that no
// longer decode are dropped with a log line.
func (s *AuditSpool) Replay(ctx context.Context, fn func(moderation.ModerationLog) error) (int, int, error) {
	var pending []spooled
	var corrupt [][]byte

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditSpool)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			key := append([]byte(nil), k...)
			var entry moderation.ModerationLog
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warn().Err(err).Uint64("seq", binary.BigEndian.Uint64(k)).Msg("boltstore: dropping unreadable audit spool entry")
				corrupt = append(corrupt, key)
				return nil
			}
			pending = append(pending, spooled{key: key, entry: entry})
			return nil
		})
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read audit spool: %w", err)
	}

	done := corrupt
	remaining := 0
	for i, p := range pending {
		if ctx.Err() != nil {
			remaining += len(pending) - i
			break
		}
		if err := fn(p.entry); err != nil {
			log.Warn().Err(err).Str("log_id", p.entry.ID).Msg("boltstore: audit entry replay failed, keeping it spooled")
			remaining++
			continue
		}
		done = append(done, p.key)
	}

	if len(done) > 0 {
		err = s.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket(BucketAuditSpool)
			if bucket == nil {
				return nil
			}
			for _, k := range done {
				if err := bucket.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, len(pending), fmt.Errorf("failed to prune audit spool: %w", err)
		}
	}

	return len(done) - len(corrupt), remaining, nil
}

// Len returns the number of spooled entries, or -1 if the spool cannot be
// read.
func (s *AuditSpool) Len() int {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAuditSpool)
		if bucket == nil {
			return nil
		}
		n = bucket.Stats().KeyN
		return nil
	})
	if err != nil {
		return -1
	}
	return n
}
