// Package artifact persists trained bundles, one per owner.
package artifact

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/model"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

// FormatVersion is bumped whenever the encoded Bundle layout changes.
const FormatVersion uint16 = 1

var (
	ErrNotFound            = errors.New("artifact: bundle not found")
	ErrIncompatibleVersion = errors.New("artifact: incompatible bundle version")
	ErrInvalidOwner        = errors.New("artifact: invalid owner id")
	ErrCorrupt             = errors.New("artifact: corrupt bundle")
)

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateOwner rejects ids that are empty, longer than 64 characters or that
// contain anything besides letters, digits, '_' and '-'. Valid ids are safe to
// use as file names and keys.
func ValidateOwner(owner string) error {
	if !ownerPattern.MatchString(owner) {
		return fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	return nil
}

// Meta describes how and when a bundle was trained.
type Meta struct {
	Owner     string
	Accuracy  float64
	Report    model.ClassificationReport
	TrainedAt time.Time
	TrainRows int
	TestRows  int
}

// Bundle is everything needed to score a record exactly as at training time.
type Bundle struct {
	Version     uint16
	ID          uuid.UUID
	Forest      *model.RandomForest
	Transformer *pipeline.Transformer
	Meta        Meta
}

// NewBundle stamps a fresh id and the current format version.
func NewBundle(forest *model.RandomForest, tr *pipeline.Transformer, meta Meta) *Bundle {
	return &Bundle{
		Version:     FormatVersion,
		ID:          uuid.New(),
		Forest:      forest,
		Transformer: tr,
		Meta:        meta,
	}
}

// Validate checks that a decoded bundle can serve predictions.
func (b *Bundle) Validate() error {
	if b.Forest == nil || len(b.Forest.Trees) == 0 {
		return fmt.Errorf("%w: no trained forest", ErrCorrupt)
	}
	if b.Transformer == nil || !b.Transformer.Fitted() {
		return fmt.Errorf("%w: transformer not fitted", ErrCorrupt)
	}
	if b.Forest.NFeatures != pipeline.NumFeatures {
		return fmt.Errorf("%w: forest expects %d features, want %d", ErrCorrupt, b.Forest.NFeatures, pipeline.NumFeatures)
	}
	return nil
}
