package artifact

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
)

// Store keeps one bundle per owner. Save replaces the previous bundle
// atomically; Load of an unknown owner returns ErrNotFound.
type Store interface {
	Save(ctx context.Context, owner string, b *Bundle) error
	Load(ctx context.Context, owner string) (*Bundle, error)
}

// Backend stores encoded bundles by key. Put must be atomic for readers and
// Get must return ErrNotFound for an absent key.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// BundleStore encodes bundles and keeps them in a Backend.
type BundleStore struct {
	backend Backend
}

func NewStore(backend Backend) *BundleStore {
	return &BundleStore{backend: backend}
}

func (s *BundleStore) Save(ctx context.Context, owner string, b *Bundle) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	blob, err := Encode(b)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.backend.Put(ctx, owner, blob)
	s.observe("save", start)
	if err != nil {
		return err
	}
	log.Info().Str("owner", owner).Str("bundle", b.ID.String()).Int("bytes", len(blob)).
		Str("backend", s.backend.Name()).Msg("bundle saved")
	return nil
}

func (s *BundleStore) Load(ctx context.Context, owner string) (*Bundle, error) {
	if err := ValidateOwner(owner); err != nil {
		return nil, err
	}
	start := time.Now()
	blob, err := s.backend.Get(ctx, owner)
	s.observe("load", start)
	if err != nil {
		return nil, err
	}
	b, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BundleStore) observe(op string, start time.Time) {
	metric.Timing(metric.StoreCallLatency, time.Since(start), metric.BuildTag(
		metric.NewTag(metric.TagBackend, s.backend.Name()),
		metric.NewTag(metric.TagOperation, op),
	))
}
