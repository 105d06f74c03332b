// Package service ties uploads, training, bundle storage, metadata and
// prediction together for one owner at a time.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metadata"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/predictor"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/trainer"
)

// MaxUploadBytes bounds a training file.
const MaxUploadBytes = 64 << 20

var (
	ErrNoDataset      = errors.New("no dataset uploaded")
	ErrUploadTooLarge = errors.New("upload too large")
)

type Service struct {
	uploadDir string
	trainer   *trainer.Trainer
	store     artifact.Store
	metadata  metadata.Store
	predictor *predictor.Predictor
}

func New(uploadDir string, tr *trainer.Trainer, store artifact.Store, meta metadata.Store) (*Service, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Service{
		uploadDir: uploadDir,
		trainer:   tr,
		store:     store,
		metadata:  meta,
		predictor: predictor.New(store),
	}, nil
}

func (s *Service) uploadPath(owner string) string {
	return filepath.Join(s.uploadDir, owner+".csv")
}

// SaveDataset validates an uploaded training file and keeps it as the owner's
// current dataset. Invalid files are rejected and leave the previous upload in
// place.
func (s *Service) SaveDataset(ctx context.Context, owner string, r io.Reader) (int, error) {
	if err := artifact.ValidateOwner(owner); err != nil {
		return 0, err
	}
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxUploadBytes {
		return 0, ErrUploadTooLarge
	}
	ds, err := data.ReadCSV(bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	if _, _, err := pipeline.ParseRecords(ds, true); err != nil {
		return 0, err
	}
	if err := writeAtomic(s.uploadPath(owner), raw); err != nil {
		return 0, err
	}
	log.Info().Str("owner", owner).Int("rows", ds.Len()).Msg("dataset uploaded")
	return ds.Len(), nil
}

func (s *Service) loadDataset(owner string) (*data.Dataset, error) {
	ds, err := data.ReadCSVFile(s.uploadPath(owner))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoDataset
	}
	return ds, err
}

// Train fits a model on the owner's uploaded dataset.
func (s *Service) Train(ctx context.Context, owner string) (metadata.Record, error) {
	if err := artifact.ValidateOwner(owner); err != nil {
		return metadata.Record{}, err
	}
	ds, err := s.loadDataset(owner)
	if err != nil {
		return metadata.Record{}, err
	}
	return s.TrainDataset(ctx, owner, ds)
}

// TrainDataset fits a model on ds, persists the bundle and records its
// metadata. Nothing is written unless training succeeds. The saved bundle is
// what predictions use, so a failed metadata write is logged and counted but
// does not fail the call; the model list just misses that entry.
func (s *Service) TrainDataset(ctx context.Context, owner string, ds *data.Dataset) (metadata.Record, error) {
	b, err := s.trainer.Train(ctx, ds, owner)
	if err != nil {
		return metadata.Record{}, err
	}
	if err := s.store.Save(ctx, owner, b); err != nil {
		return metadata.Record{}, err
	}
	rec := metadata.Record{
		ID:        uuid.NewString(),
		Owner:     owner,
		ModelName: metadata.ModelName(owner),
		Accuracy:  b.Meta.Accuracy,
		Report:    b.Meta.Report,
		TrainRows: b.Meta.TrainRows,
		TestRows:  b.Meta.TestRows,
		CreatedAt: b.Meta.TrainedAt,
	}
	if err := s.metadata.Put(ctx, rec); err != nil {
		log.Error().Err(err).Str("owner", owner).Str("record", rec.ID).Msg("model saved but metadata not recorded")
		metric.Incr(metric.ErrorCount, metric.BuildTag(metric.NewTag(metric.TagOperation, "metadata_put")))
	}
	metric.Incr(metric.TrainingCount, nil)
	return rec, nil
}

func (s *Service) Predict(ctx context.Context, owner string, rec pipeline.Record) (predictor.Result, error) {
	if err := artifact.ValidateOwner(owner); err != nil {
		return predictor.Result{}, err
	}
	return s.predictor.Predict(ctx, owner, rec)
}

func (s *Service) Models(ctx context.Context, owner string) ([]metadata.Record, error) {
	if err := artifact.ValidateOwner(owner); err != nil {
		return nil, err
	}
	return s.metadata.List(ctx, owner)
}

// Summary describes the owner's uploaded dataset.
func (s *Service) Summary(ctx context.Context, owner string) (pipeline.Summary, error) {
	if err := artifact.ValidateOwner(owner); err != nil {
		return pipeline.Summary{}, err
	}
	ds, err := s.loadDataset(owner)
	if err != nil {
		return pipeline.Summary{}, err
	}
	records, labels, err := pipeline.ParseRecords(ds, true)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return pipeline.Summarize(records, labels), nil
}

func writeAtomic(path string, raw []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write upload: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync upload: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close upload: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
