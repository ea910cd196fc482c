package modeling

import "time"

// Split thresholds.
const (
	// MinPeriodsForTimeSplit is the number of distinct periods needed to
	// split on time instead of position.
	MinPeriodsForTimeSplit = 10
	cutoffQuantile         = 0.9
	positionalTrainShare   = 0.8
)

// Split is a train/test partition of a dataset.
type Split struct {
	Train []Sample
	Test  []Sample
	// Cutoff is the first test period of a time split; zero for a
	// positional split.
	Cutoff time.Time
}

// SplitByPeriod partitions d for out-of-time evaluation. With at least
// MinPeriodsForTimeSplit distinct periods, samples before the 90th-percentile
// period train and the rest test. Otherwise the first 80% of rows (in
// dataset order) train.
func SplitByPeriod(d Dataset) Split {
	periods := d.Periods()
	if len(periods) >= MinPeriodsForTimeSplit {
		cutoff := periods[int(float64(len(periods))*cutoffQuantile)]
		s := Split{Cutoff: cutoff}
		for _, sample := range d.Samples {
			if sample.Period.Before(cutoff) {
				s.Train = append(s.Train, sample)
			} else {
				s.Test = append(s.Test, sample)
			}
		}
		return s
	}

	n := int(float64(len(d.Samples)) * positionalTrainShare)
	return Split{Train: d.Samples[:n], Test: d.Samples[n:]}
}
