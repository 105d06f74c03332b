package trainer

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/hrtest"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/loader"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.NEstimators = 20
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.NEstimators)
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 5, cfg.MinSamplesSplit)
	assert.Equal(t, 3, cfg.MaxFeatures)
	assert.Equal(t, 0.2, cfg.TestRatio)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestTrainProducesAccurateBundle(t *testing.T) {
	tr := New(fastConfig())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	b, err := tr.Train(context.Background(), hrtest.Dataset(1000, 3), "alice")
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	assert.Equal(t, "alice", b.Meta.Owner)
	assert.Equal(t, fixed, b.Meta.TrainedAt)
	assert.Equal(t, 800, b.Meta.TrainRows)
	assert.Equal(t, 200, b.Meta.TestRows)
	assert.Greater(t, b.Meta.Accuracy, 0.9)
	assert.Equal(t, b.Meta.Accuracy, b.Meta.Report.Accuracy)
	assert.Equal(t, []int{0, 1}, b.Meta.Report.Classes)
	assert.Len(t, b.Forest.Trees, 20)

	support := 0
	for _, c := range b.Meta.Report.PerClass {
		support += c.Support
	}
	assert.Equal(t, 200, support)
}

func TestTrainDeterministic(t *testing.T) {
	ds := hrtest.Dataset(400, 5)
	a, err := New(fastConfig()).Train(context.Background(), ds, "alice")
	require.NoError(t, err)
	cfg := fastConfig()
	cfg.Workers = 4
	b, err := New(cfg).Train(context.Background(), ds, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.Meta.Report, b.Meta.Report)
	assert.Equal(t, a.Transformer.Scaler, b.Transformer.Scaler)
}

func TestTrainFitsScalerOnTrainingPartitionOnly(t *testing.T) {
	ds := hrtest.Dataset(300, 9)
	b, err := New(fastConfig()).Train(context.Background(), ds, "alice")
	require.NoError(t, err)

	records, labels, err := pipeline.ParseRecords(ds, true)
	require.NoError(t, err)
	trainIdx, _, err := loader.StratifiedSplit(labels, 0.2, 42)
	require.NoError(t, err)
	sum := 0.0
	for _, r := range loader.Take(records, trainIdx) {
		sum += r.SatisfactionLevel
	}
	want := sum / float64(len(trainIdx))
	assert.InDelta(t, want, b.Transformer.Scaler.Mean[pipeline.IdxSatisfactionLevel], 1e-12)
}

func TestTrainErrors(t *testing.T) {
	ctx := context.Background()
	tr := New(fastConfig())

	_, err := tr.Train(ctx, data.NewDataset(hrtest.Header, nil), "alice")
	assert.ErrorIs(t, err, pipeline.ErrEmptyDataset)

	_, err = tr.Train(ctx, data.NewDataset([]string{"salary"}, [][]string{{"low"}}), "alice")
	var se *pipeline.SchemaError
	assert.ErrorAs(t, err, &se)

	rows := hrtest.Rows(20, 1)
	rows[4][0] = "abc"
	_, err = tr.Train(ctx, data.NewDataset(hrtest.Header, rows), "alice")
	var re *pipeline.RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 6, re.Line)

	rows = hrtest.Rows(20, 1)
	for _, r := range rows {
		r[9] = "0"
	}
	_, err = tr.Train(ctx, data.NewDataset(hrtest.Header, rows), "alice")
	assert.ErrorIs(t, err, loader.ErrDegenerateLabels)

	rows[0][9] = "1"
	_, err = tr.Train(ctx, data.NewDataset(hrtest.Header, rows), "alice")
	assert.ErrorIs(t, err, loader.ErrDegenerateSplit)

	_, err = tr.Train(ctx, hrtest.Dataset(50, 1), "bad owner")
	assert.ErrorIs(t, err, artifact.ErrInvalidOwner)
}

func TestTrainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(fastConfig()).Train(ctx, hrtest.Dataset(100, 1), "alice")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStratifiedLeaveRate(t *testing.T) {
	ds := hrtest.Dataset(1000, 3)
	b, err := New(fastConfig()).Train(context.Background(), ds, "alice")
	require.NoError(t, err)
	_, labels, err := pipeline.ParseRecords(ds, true)
	require.NoError(t, err)
	left := 0
	for _, y := range labels {
		left += y
	}
	overall := float64(left) / float64(len(labels))
	testRate := float64(b.Meta.Report.PerClass[1].Support) / float64(b.Meta.TestRows)
	assert.LessOrEqual(t, math.Abs(overall-testRate), 0.02)
}

func TestTrainWithDepartmentsMissingFromTrainingPartition(t *testing.T) {
	rows := hrtest.RareRows(500, 4, 0.2, 42)
	b, err := New(fastConfig()).Train(context.Background(), data.NewDataset(hrtest.Header, rows), "alice")
	require.NoError(t, err)
	assert.Equal(t, 100, b.Meta.TestRows)

	for _, dept := range []string{hrtest.EvalOnlyDepartment, hrtest.PairDepartment} {
		_, err := b.Transformer.Department.Encode(dept)
		assert.NoError(t, err, dept)
	}
	assert.Equal(t, len(hrtest.Departments)+2, b.Transformer.Department.Len())
}

func TestDefaultMinSamplesLeaf(t *testing.T) {
	assert.Equal(t, 1, DefaultConfig().MinSamplesLeaf)

	cfg := fastConfig()
	cfg.NEstimators = 3
	cfg.MinSamplesLeaf = 40
	b, err := New(cfg).Train(context.Background(), hrtest.Dataset(300, 2), "alice")
	require.NoError(t, err)
	for _, tree := range b.Forest.Trees {
		assert.Equal(t, 40, tree.MinSamplesLeaf)
		for _, n := range tree.Nodes {
			if n.IsLeaf() {
				assert.GreaterOrEqual(t, n.N, 40)
			}
		}
	}
}
