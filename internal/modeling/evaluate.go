package modeling

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrSingleClass is returned when the training labels do not contain both
// classes; no model is trained in that case.
var ErrSingleClass = errors.New("training labels have fewer than two classes")

// ClassMetrics holds the per-class scores of a binary evaluation.
type ClassMetrics struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Importance is one ranked feature.
type Importance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Evaluation is the outcome of training and scoring one dataset.
type Evaluation struct {
	Classifier  Classifier     `json:"-"`
	Features    []string       `json:"features"`
	TrainRows   int            `json:"train_rows"`
	TestRows    int            `json:"test_rows"`
	Cutoff      time.Time      `json:"cutoff,omitzero"`
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	Confusion   [2][2]int      `json:"confusion"` // [actual][predicted]
	Importances []Importance   `json:"importances"`
	Report      string         `json:"report"`
}

// Evaluate splits d by period, fits trainer on the training part and scores
// the test part. It returns ErrSingleClass when the training labels are all
// equal.
func Evaluate(d Dataset, trainer Trainer) (*Evaluation, error) {
	split := SplitByPeriod(d)
	xTrain, yTrain := Matrix(split.Train)
	if !hasBothClasses(yTrain) {
		return nil, ErrSingleClass
	}

	clf, err := trainer.Train(xTrain, yTrain)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	xTest, yTest := Matrix(split.Test)
	var cm [2][2]int
	for i, features := range xTest {
		cm[yTest[i]&1][clf.Predict(features)&1]++
	}

	ev := &Evaluation{
		Classifier: clf,
		Features:   slices.Clone(FeatureNames),
		TrainRows:  len(split.Train),
		TestRows:   len(split.Test),
		Cutoff:     split.Cutoff,
		Confusion:  cm,
		Classes:    classMetrics(cm),
	}
	if n := len(yTest); n > 0 {
		ev.Accuracy = float64(cm[0][0]+cm[1][1]) / float64(n)
	}
	if r, ok := clf.(ImportanceReporter); ok {
		ev.Importances = rankImportances(FeatureNames, r.Importances())
	}
	ev.Report = formatReport(ev.Classes, ev.Accuracy, len(yTest))
	return ev, nil
}

func hasBothClasses(y []int) bool {
	var seen [2]bool
	for _, label := range y {
		seen[label&1] = true
	}
	return seen[0] && seen[1]
}

// classMetrics derives precision, recall and F1 per class from a confusion
// matrix. Undefined ratios are 0.
func classMetrics(cm [2][2]int) []ClassMetrics {
	out := make([]ClassMetrics, 2)
	for c := range 2 {
		tp := cm[c][c]
		predicted := cm[0][c] + cm[1][c]
		actual := cm[c][0] + cm[c][1]
		m := ClassMetrics{Class: c, Support: actual}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, actual)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		out[c] = m
	}
	return out
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// rankImportances pairs names with importances, largest first. Ties keep
// feature order.
func rankImportances(names []string, values []float64) []Importance {
	out := make([]Importance, 0, len(names))
	for i, name := range names {
		if i < len(values) {
			out = append(out, Importance{Feature: name, Importance: values[i]})
		}
	}
	slices.SortStableFunc(out, func(a, b Importance) int {
		switch {
		case a.Importance > b.Importance:
			return -1
		case a.Importance < b.Importance:
			return 1
		}
		return 0
	})
	return out
}

const reportLabelWidth = len("weighted avg")

// formatReport renders the familiar precision/recall/F1 text table with
// three decimals, including macro and support-weighted averages.
func formatReport(classes []ClassMetrics, accuracy float64, support int) string {
	var sb strings.Builder
	w := reportLabelWidth

	fmt.Fprintf(&sb, "%*s  %9s %9s %9s %9s\n\n", w, "", "precision", "recall", "f1-score", "support")
	for _, c := range classes {
		fmt.Fprintf(&sb, "%*d  %9.3f %9.3f %9.3f %9d\n", w, c.Class, c.Precision, c.Recall, c.F1, c.Support)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%*s  %9s %9s %9.3f %9d\n", w, "accuracy", "", "", accuracy, support)

	var macro, weighted [3]float64
	for _, c := range classes {
		vals := [3]float64{c.Precision, c.Recall, c.F1}
		for i, v := range vals {
			macro[i] += v / float64(len(classes))
			if support > 0 {
				weighted[i] += v * float64(c.Support) / float64(support)
			}
		}
	}
	fmt.Fprintf(&sb, "%*s  %9.3f %9.3f %9.3f %9d\n", w, "macro avg", macro[0], macro[1], macro[2], support)
	fmt.Fprintf(&sb, "%*s  %9.3f %9.3f %9.3f %9d\n", w, "weighted avg", weighted[0], weighted[1], weighted[2], support)
	return sb.String()
}
