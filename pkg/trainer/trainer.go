// Package trainer fits the attrition classifier and packages it as a bundle.
package trainer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/loader"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/model"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

// Config holds the training hyperparameters.
type Config struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	TestRatio       float64
	Seed            int64
	Workers         int
}

// DefaultConfig returns the production hyperparameters.
func DefaultConfig() Config {
	return Config{
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  1,
		MaxFeatures:     int(math.Sqrt(pipeline.NumFeatures)),
		TestRatio:       0.2,
		Seed:            42,
		Workers:         1,
	}
}

// Trainer turns a labeled dataset into a bundle. It never persists anything.
type Trainer struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) *Trainer {
	return &Trainer{cfg: cfg, now: time.Now}
}

// Train validates ds, builds the category tables from every row, splits it,
// fits the imputer and scaler on the training partition and the forest on
// its output, then scores the held-out partition.
func (t *Trainer) Train(ctx context.Context, ds *data.Dataset, owner string) (*artifact.Bundle, error) {
	start := time.Now()
	if err := artifact.ValidateOwner(owner); err != nil {
		return nil, err
	}
	if _, err := pipeline.Validate(ds, true); err != nil {
		return nil, err
	}
	records, labels, err := pipeline.ParseRecords(ds, true)
	if err != nil {
		return nil, err
	}

	// Category tables cover every parsed row; imputer and scaler only see
	// the training partition.
	tr := pipeline.NewTransformer()
	if err := tr.FitEncoders(records); err != nil {
		return nil, fmt.Errorf("fit encoders: %w", err)
	}

	trainIdx, testIdx, err := loader.StratifiedSplit(labels, t.cfg.TestRatio, t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	trainRecords, testRecords := loader.Take(records, trainIdx), loader.Take(records, testIdx)
	yTrain, yTest := loader.Take(labels, trainIdx), loader.Take(labels, testIdx)

	XTrain, err := tr.Fit(trainRecords)
	if err != nil {
		return nil, fmt.Errorf("fit transformer: %w", err)
	}
	XTest, err := tr.Transform(testRecords)
	if err != nil {
		return nil, fmt.Errorf("transform evaluation rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	forest := model.NewRandomForest(
		model.WithNEstimators(t.cfg.NEstimators),
		model.WithForestMaxDepth(t.cfg.MaxDepth),
		model.WithForestMinSamplesSplit(t.cfg.MinSamplesSplit),
		model.WithForestMinSamplesLeaf(t.cfg.MinSamplesLeaf),
		model.WithForestMaxFeatures(t.cfg.MaxFeatures),
		model.WithBootstrap(true),
		model.WithSeed(t.cfg.Seed),
		model.WithWorkers(t.cfg.Workers),
	)
	if err := forest.Fit(XTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pred, err := forest.Predict(XTest)
	if err != nil {
		return nil, fmt.Errorf("score evaluation rows: %w", err)
	}
	report, err := model.NewClassificationReport(yTest, pred, forest.Classes)
	if err != nil {
		return nil, err
	}

	bundle := artifact.NewBundle(forest, tr, artifact.Meta{
		Owner:     owner,
		Accuracy:  report.Accuracy,
		Report:    report,
		TrainedAt: t.now().UTC(),
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
	})

	metric.Timing(metric.TrainingLatency, time.Since(start), nil)
	metric.Gauge(metric.ModelAccuracy, report.Accuracy, nil)
	log.Info().Str("owner", owner).Str("bundle", bundle.ID.String()).
		Int("trainRows", len(trainIdx)).Int("testRows", len(testIdx)).
		Float64("accuracy", report.Accuracy).Int("maxTreeDepth", forest.MaxTreeDepth()).Dur("took", time.Since(start)).
		Msg("model trained")
	return bundle, nil
}
