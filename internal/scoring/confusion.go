package scoring

import (
	"math"

	"github.com/keshavmalik0756/EduPulse-sub000/internal/numeric"
)

// Confusion weights and per-metric reasonable maximums. Shorter average watch
// time raises the deficit term, so heavy scrubbing with short dwell reads as
// high confusion.
var confusionWeights = struct {
	replay, skip, pause, watchDeficit float64
}{
	replay:       0.30,
	skip:         0.25,
	pause:        0.20,
	watchDeficit: 0.25,
}

const (
	confusionReplayCap = 10
	confusionSkipCap   = 5
	confusionPauseCap  = 8

	// HighConfusionThreshold is the ad-hoc cutoff consumers use to flag a
	// window as confusing. There is no category enum for confusion.
	HighConfusionThreshold = 70

	expectedWatchSeconds = 60
)

// ConfusionScore derives the 0-100 confusion score for one time window from
// its raw interaction counters. Always a pure function of the four inputs.
func ConfusionScore(replayCount, skipCount, pauseCount int, averageWatchTime float64) int {
	deficit := math.Max(1-averageWatchTime/expectedWatchSeconds, 0)

	return numeric.WeightedScore([]numeric.WeightedPart{
		{Value: numeric.Normalize(float64(replayCount), confusionReplayCap), Weight: confusionWeights.replay},
		{Value: numeric.Normalize(float64(skipCount), confusionSkipCap), Weight: confusionWeights.skip},
		{Value: numeric.Normalize(float64(pauseCount), confusionPauseCap), Weight: confusionWeights.pause},
		{Value: deficit, Weight: confusionWeights.watchDeficit},
	})
}
