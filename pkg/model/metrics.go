package model

import "fmt"

// Accuracy is the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 scores one class as the positive label.
func PrecisionRecallF1(yTrue []int, yPred []int, positive int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		if yPred[i] == positive && yTrue[i] == positive {
			tp++
		}
		if yPred[i] == positive && yTrue[i] != positive {
			fp++
		}
		if yPred[i] != positive && yTrue[i] == positive {
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// ClassScore is one row of a classification report.
type ClassScore struct {
	Label     int     `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport summarizes predictions on a held-out set.
// Confusion[i][j] counts rows of Classes[i] predicted as Classes[j].
type ClassificationReport struct {
	Accuracy  float64      `json:"accuracy"`
	Classes   []int        `json:"classes"`
	PerClass  []ClassScore `json:"per_class"`
	Confusion [][]int      `json:"confusion"`
}

// NewClassificationReport scores yPred against yTrue for the given classes.
func NewClassificationReport(yTrue, yPred, classes []int) (ClassificationReport, error) {
	if len(yTrue) != len(yPred) {
		return ClassificationReport{}, fmt.Errorf("metrics: %d labels vs %d predictions", len(yTrue), len(yPred))
	}
	r := ClassificationReport{
		Accuracy:  Accuracy(yTrue, yPred),
		Classes:   append([]int(nil), classes...),
		Confusion: make([][]int, len(classes)),
	}
	for i := range r.Confusion {
		r.Confusion[i] = make([]int, len(classes))
	}
	for i := range yTrue {
		ti, pi := classIndex(yTrue[i], classes), classIndex(yPred[i], classes)
		if ti < 0 || pi < 0 {
			return ClassificationReport{}, fmt.Errorf("metrics: label outside %v", classes)
		}
		r.Confusion[ti][pi]++
	}
	for i, c := range classes {
		p, rec, f1 := PrecisionRecallF1(yTrue, yPred, c)
		support := 0
		for _, v := range r.Confusion[i] {
			support += v
		}
		r.PerClass = append(r.PerClass, ClassScore{Label: c, Precision: p, Recall: rec, F1: f1, Support: support})
	}
	return r, nil
}
