package metric

import (
	"testing"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/stretchr/testify/assert"
)

type recordingClient struct {
	statsd.NoOpClient
	names []string
	tags  [][]string
}

func (r *recordingClient) Count(name string, value int64, tags []string, rate float64) error {
	r.names = append(r.names, name)
	r.tags = append(r.tags, tags)
	return nil
}

func (r *recordingClient) Timing(name string, value time.Duration, tags []string, rate float64) error {
	r.names = append(r.names, name)
	r.tags = append(r.tags, tags)
	return nil
}

func TestBuildTag(t *testing.T) {
	tags := BuildTag(NewTag(TagPath, "/predict"), NewTag(TagMethod, "POST"))
	assert.Equal(t, []string{"path:/predict", "method:POST"}, tags)
}

func TestHelpersUseClient(t *testing.T) {
	rc := &recordingClient{}
	SetClient(rc)
	defer SetClient(&statsd.NoOpClient{})

	Incr(PredictionCount, BuildTag(NewTag(TagVerdict, "leave")))
	Timing(TrainingLatency, time.Second, nil)
	assert.Equal(t, []string{PredictionCount, TrainingLatency}, rc.names)
	assert.Contains(t, rc.tags[0], "verdict:leave")
}

func TestInitWithoutAddressKeepsNoOp(t *testing.T) {
	Init("", "retention", "test")
	assert.NotPanics(t, func() { Gauge(ModelAccuracy, 0.97, nil) })
}
