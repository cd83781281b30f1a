package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	// ErrNotFound means the record does not exist. Absence is a valid
	// "no data" state, so it never counts as a storage failure.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable means the durable store cannot be read or written.
	ErrUnavailable = errors.New("storage unavailable")
)

// Kind is the record type. Keys are scoped by kind.
type Kind string

const (
	KindCategories Kind = "categories"
	KindSessions   Kind = "sessions"
	KindStats      Kind = "stats"
)

const recordVersion = 1

// Backend is a durable key-value store for records.
type Backend interface {
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)
	Set(ctx context.Context, kind Kind, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	// FailureThreshold is the number of consecutive backend failures that
	// switches the store to unavailable.
	FailureThreshold uint32
	// OpenTimeout is how long the store stays unavailable before probing the
	// backend again.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// Store reads and writes typed records through a backend guarded by a
// circuit breaker.
//
// Read-modify-write helpers such as UpsertSession and the category registry
// assume a single writer. Store is not safe for concurrent mutation of the
// same record from several actors.
type Store struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// New opens (or creates) the SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	return Wrap(db, DefaultOptions()), nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// Wrap guards b with a circuit breaker configured by opts.
func Wrap(b Backend, opts Options) *Store {
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = DefaultOptions().FailureThreshold
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = DefaultOptions().OpenTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:    "store",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Store{
		backend: b,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:  logger,
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Available reports whether reads and writes are currently expected to
// succeed.
func (s *Store) Available(ctx context.Context) bool {
	if s.breaker.State() == gobreaker.StateOpen {
		return false
	}
	_, err := s.breaker.Execute(func() ([]byte, error) {
		return nil, s.backend.Ping(ctx)
	})
	return err == nil
}

// Get loads the raw record value. Missing records yield ErrNotFound; every
// other failure is wrapped in ErrUnavailable.
func (s *Store) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	v, err := s.breaker.Execute(func() ([]byte, error) {
		return s.backend.Get(ctx, kind, key)
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return v, nil
}

// Set writes the raw record value. The write is durable once Set returns.
func (s *Store) Set(ctx context.Context, kind Kind, key string, value []byte) error {
	_, err := s.breaker.Execute(func() ([]byte, error) {
		return nil, s.backend.Set(ctx, kind, key, value)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

type envelope struct {
	Kind    Kind            `json:"kind"`
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// load decodes the record into v. It reports false when the record is absent.
func (s *Store) load(ctx context.Context, kind Kind, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, kind, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", kind, key, err)
	}
	if env.Kind != kind {
		return false, fmt.Errorf("decode %s/%s: unexpected record kind %q", kind, key, env.Kind)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", kind, key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, kind Kind, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, key, err)
	}
	raw, err := json.Marshal(envelope{Kind: kind, Version: recordVersion, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, key, err)
	}
	return s.Set(ctx, kind, key, raw)
}
