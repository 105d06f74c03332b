package metric

import (
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	ApiRequestCount   = "api_request_count"
	ApiRequestLatency = "api_request_latency"
	TrainingLatency   = "training_latency"
	TrainingCount     = "training_count"
	ModelAccuracy     = "model_accuracy"
	PredictionCount   = "prediction_count"
	ImputedFieldCount = "imputed_field_count"
	ErrorCount        = "error_count"
	StoreCallLatency  = "store_call_latency"
	CacheLookupCount  = "cache_lookup_count"
)

const (
	TagEnv            = "env"
	TagService        = "service"
	TagPath           = "path"
	TagMethod         = "method"
	TagHttpStatusCode = "http_status_code"
	TagErrorCode      = "error_code"
	TagBackend        = "backend"
	TagOperation      = "operation"
	TagVerdict        = "verdict"
	TagCacheResult    = "cache_result"
)

var (
	// safe for concurrent use; a no-op until Init is called with an address
	statsDClient statsd.ClientInterface = &statsd.NoOpClient{}
	samplingRate                        = 1.0
	appName                             = ""
	initialized                         = false
	once                                sync.Once
)

// Init connects the statsd client. An empty address keeps the no-op client.
func Init(addr, service, env string) {
	if initialized {
		log.Debug().Msgf("Metrics already initialized!")
		return
	}
	once.Do(func() {
		appName = service
		initialized = true
		if addr == "" {
			log.Info().Msg("METRIC_ADDR not set, metrics disabled")
			return
		}
		globalTags := []string{TagAsString(TagEnv, env), TagAsString(TagService, service)}
		client, err := statsd.New(addr, statsd.WithTags(globalTags))
		if err != nil {
			log.Error().Err(err).Msg("StatsD client initialization failed, metrics disabled")
			return
		}
		statsDClient = client
		log.Info().Msgf("Metrics client initialized with address - %s, global tags - %v", addr, globalTags)
	})
}

// SetClient replaces the client, for tests.
func SetClient(c statsd.ClientInterface) { statsDClient = c }

// Timing sends timing information
func Timing(name string, value time.Duration, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Timing(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd timing", err)
	}
}

// Count Increases metric counter by value
func Count(name string, value int64, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Count(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd count", err)
	}
}

// Incr Increases metric counter by 1
func Incr(name string, tags []string) {
	Count(name, 1, tags)
}

func Gauge(name string, value float64, tags []string) {
	tags = append(tags, TagAsString(TagService, appName))
	if err := statsDClient.Gauge(name, value, tags, samplingRate); err != nil {
		log.Warn().AnErr("Error occurred while doing statsd gauge", err)
	}
}

type Tag struct {
	Name  string
	Value string
}

func NewTag(name, value string) Tag {
	return Tag{Name: name, Value: value}
}

// BuildTag builds a tag list from the given tags
func BuildTag(tags ...Tag) []string {
	allTags := make([]string, 0, len(tags))
	for _, tag := range tags {
		allTags = append(allTags, TagAsString(tag.Name, tag.Value))
	}
	return allTags
}

func TagAsString(name string, value string) string {
	return name + ":" + value
}
