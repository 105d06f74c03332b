// Package predictor scores single employee records with a stored bundle.
package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/artifact"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/pipeline"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/stats"
)

const (
	VerdictLeave = "Likely to Leave"
	VerdictStay  = "Likely to Stay"

	labelLeave = 1
)

var ErrModelNotTrained = errors.New("model not trained")

// Result is the decision for one record. Probabilities are percentages with
// two decimals and always sum to 100.
type Result struct {
	Verdict          string   `json:"verdict"`
	ProbabilityLeave float64  `json:"probability_leave"`
	ProbabilityStay  float64  `json:"probability_stay"`
	ImputedFields    []string `json:"imputed_fields"`
}

// Predictor loads the owner's bundle on every call, so a retrain is picked up
// by the next prediction.
type Predictor struct {
	store artifact.Store
}

func New(store artifact.Store) *Predictor {
	return &Predictor{store: store}
}

func (p *Predictor) Predict(ctx context.Context, owner string, rec pipeline.Record) (Result, error) {
	b, err := p.store.Load(ctx, owner)
	if errors.Is(err, artifact.ErrNotFound) {
		return Result{}, fmt.Errorf("%w: %w", ErrModelNotTrained, err)
	}
	if err != nil {
		return Result{}, err
	}
	res, err := Score(b, rec)
	if err != nil {
		return Result{}, err
	}
	metric.Incr(metric.PredictionCount, metric.BuildTag(metric.NewTag(metric.TagVerdict, res.Verdict)))
	if len(res.ImputedFields) > 0 {
		metric.Count(metric.ImputedFieldCount, int64(len(res.ImputedFields)), nil)
		log.Debug().Str("owner", owner).Strs("fields", res.ImputedFields).Msg("imputed missing fields with training means")
	}
	return res, nil
}

// Score runs rec through a loaded bundle. Ties between the two classes go to
// stay.
func Score(b *artifact.Bundle, rec pipeline.Record) (Result, error) {
	x, imputed, err := b.Transformer.TransformRecord(rec)
	if err != nil {
		return Result{}, err
	}
	proba, err := b.Forest.PredictProba([][]float64{x})
	if err != nil {
		return Result{}, err
	}
	leave := 0.0
	for i, c := range b.Forest.Classes {
		if c == labelLeave {
			leave = proba[0][i]
		}
	}
	res := Result{
		ProbabilityLeave: stats.Round(leave*100, 2),
		ImputedFields:    imputed,
	}
	res.ProbabilityStay = stats.Round(100-res.ProbabilityLeave, 2)
	res.Verdict = VerdictStay
	if res.ProbabilityLeave > res.ProbabilityStay {
		res.Verdict = VerdictLeave
	}
	if res.ImputedFields == nil {
		res.ImputedFields = []string{}
	}
	return res, nil
}
