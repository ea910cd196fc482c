// Package modeling turns the cleaned fact table into a supervised dataset
// and trains a classifier that predicts whether an equipment-month will
// carry a PMM1 maintenance order.
package modeling

import (
	"cmp"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fleetfact/internal/core"
)

// LabelColumn is the name of the target column in the dataset view.
const LabelColumn = "y_pmm1"

// Lagged measure columns, in feature order.
const (
	ColTonnageLag      = "toneladas_total_lag1"
	ColOrdersLag       = "om_total_lag1"
	ColPMM1Lag         = "om_pmm1_lag1"
	ColPMM2Lag         = "om_pmm2_lag1"
	ColMeanDurationLag = "dias_om_prom_lag1"
)

// FeatureNames lists the model inputs in the order returned by Sample.Features.
var FeatureNames = []string{
	ColTonnageLag, ColOrdersLag, ColPMM1Lag, ColPMM2Lag, ColMeanDurationLag, "toneladas_total",
}

// DatasetColumns is the column order of the model dataset table.
var DatasetColumns = append(append(append([]string{}, core.CleanFactColumns...), LabelColumn), FeatureNames[:5]...)

// Sample is one equipment-month with its label and previous-month measures.
type Sample struct {
	core.CleanFact
	Label int // 1 when the month has at least one PMM1 order

	TonnageLag      float64
	OrdersLag       float64
	PMM1Lag         float64
	PMM2Lag         float64
	MeanDurationLag float64
}

// Features returns the model inputs of s in FeatureNames order.
func (s Sample) Features() []float64 {
	return []float64{s.TonnageLag, s.OrdersLag, s.PMM1Lag, s.PMM2Lag, s.MeanDurationLag, s.Tonnage}
}

// Dataset is the model table, sorted by equipment then period.
type Dataset struct {
	Samples []Sample
}

// BuildDataset labels every cleaned fact and attaches the measures of the
// previous row of the same equipment. The first month of each equipment, and
// any missing previous value, gets a zero lag.
func BuildDataset(facts []core.CleanFact) Dataset {
	sorted := slices.Clone(facts)
	slices.SortStableFunc(sorted, func(a, b core.CleanFact) int {
		if c := cmp.Compare(a.Equipment, b.Equipment); c != 0 {
			return c
		}
		return a.Period.Compare(b.Period)
	})

	samples := make([]Sample, len(sorted))
	for i, f := range sorted {
		s := Sample{CleanFact: f}
		if f.PMM1 > 0 {
			s.Label = 1
		}
		if i > 0 && sorted[i-1].Equipment == f.Equipment {
			prev := sorted[i-1]
			s.TonnageLag = prev.Tonnage
			s.OrdersLag = float64(prev.Orders)
			s.PMM1Lag = float64(prev.PMM1)
			s.PMM2Lag = float64(prev.PMM2)
			s.MeanDurationLag = valueOrZero(prev.MeanDuration)
		}
		samples[i] = s
	}
	return Dataset{Samples: samples}
}

// Matrix returns the feature matrix and label vector of samples.
func Matrix(samples []Sample) ([][]float64, []int) {
	x := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		x[i] = s.Features()
		y[i] = s.Label
	}
	return x, y
}

// Periods returns the distinct periods of the dataset in ascending order.
func (d Dataset) Periods() []time.Time {
	var out []time.Time
	for _, s := range d.Samples {
		out = append(out, s.Period)
	}
	slices.SortFunc(out, time.Time.Compare)
	return slices.CompactFunc(out, time.Time.Equal)
}

// View renders the dataset as the ml_equipo_mes_clean table.
func (d Dataset) View() core.View {
	v := core.View{Name: core.TableModelDataset, Columns: DatasetColumns, Rows: make([][]any, len(d.Samples))}
	for i, s := range d.Samples {
		var mean any
		if s.MeanDuration.Valid {
			mean = s.MeanDuration.Float64
		}
		v.Rows[i] = []any{
			s.EquipmentID, s.Equipment, s.Year, s.Month,
			s.Tonnage, s.OperationRecords, s.Orders, s.PMM1, s.PMM2, mean,
			s.Period, s.Label,
			s.TonnageLag, s.OrdersLag, s.PMM1Lag, s.PMM2Lag, s.MeanDurationLag,
		}
	}
	return v
}

func valueOrZero(v pgtype.Float8) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}
