package journal

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/veropos/terminal-bridge/internal/domain/terminal"
)

const keyPrefix = "op_"

// Entry is one recorded terminal operation outcome, kept for
// reconciliation against the acquirer's settlement reports.
type Entry struct {
	ID               string                 `json:"id"`
	Kind             terminal.OperationKind `json:"kind"`
	Provider         terminal.Provider      `json:"provider"`
	Transport        terminal.TransportMode `json:"transport"`
	Success          bool                   `json:"success"`
	ResponseCode     string                 `json:"response_code,omitempty"`
	Authorization    string                 `json:"authorization,omitempty"`
	AmountMinorUnits int64                  `json:"amount_minor_units,omitempty"`
	BatchNumber      string                 `json:"batch_number,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	RecordedAt       time.Time              `json:"recorded_at"`
}

// Journal is a device-local badger store of operation outcomes. Entries
// expire after the configured TTL; the terminal's own batch close is
// the durable record, this is the working copy for support queries.
type Journal struct {
	db     *badger.DB
	ttl    time.Duration
	logger zerolog.Logger
}

func Open(path string, ttl time.Duration, logger zerolog.Logger) (*Journal, error) {
	opts := badger.DefaultOptions(path).
		WithValueLogFileSize(1 << 20).
		WithSyncWrites(false).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	return &Journal{
		db:     db,
		ttl:    ttl,
		logger: logger.With().Str("component", "journal").Logger(),
	}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry. Keys sort by record time so Recent can walk
// them in reverse.
func (j *Journal) Record(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal journal entry: %w", err)
	}

	key := fmt.Sprintf("%s%020d_%s", keyPrefix, e.RecordedAt.UnixNano(), e.ID)
	err = j.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(j.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	entries := make([]Entry, 0, limit)
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past every "op_" key; reverse iteration walks back from
		// the newest.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.Valid() && len(entries) < limit; it.Next() {
			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				j.logger.Warn().Err(err).Msg("skipping unreadable journal entry")
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return entries, nil
}
