package extraction

import (
	"math"
	"math/rand"
	"sort"

	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

// defaultMaxTrackedCategories caps the per-column frequency map so a
// high-cardinality column cannot grow memory without bound.
const defaultMaxTrackedCategories = 10000

// StreamingNumericStats accumulates single-pass statistics over a numeric
// column: Welford mean/variance, min/max, zero and negative counts, Benford
// first-digit counts, and an optional reservoir sample for percentile
// estimation. A capacity of zero disables the reservoir.
type StreamingNumericStats struct {
	count         uint64
	mean          float64
	m2            float64
	sum           float64
	min           float64
	max           float64
	zeroCount     uint64
	negativeCount uint64
	benford       [9]uint64
	reservoir     []float64
	capacity      int
	rng           *rand.Rand
}

// NewStreamingNumericStats creates an accumulator. The seed drives reservoir
// replacement so a given (input, seed) pair always yields the same sample.
func NewStreamingNumericStats(reservoirCapacity int, seed int64) *StreamingNumericStats {
	s := &StreamingNumericStats{
		min:      math.Inf(1),
		max:      math.Inf(-1),
		capacity: reservoirCapacity,
	}
	if reservoirCapacity > 0 {
		s.reservoir = make([]float64, 0, reservoirCapacity)
		s.rng = rand.New(rand.NewSource(seed))
	}
	return s
}

// Add folds one value into the accumulator.
func (s *StreamingNumericStats) Add(value float64) {
	s.count++
	s.sum += value

	if value < s.min {
		s.min = value
	}
	if value > s.max {
		s.max = value
	}

	delta := value - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (value - s.mean)

	if value == 0 {
		s.zeroCount++
	} else if value < 0 {
		s.negativeCount++
	}

	if d := firstDigit(value); d > 0 {
		s.benford[d-1]++
	}

	if s.capacity > 0 {
		if len(s.reservoir) < s.capacity {
			s.reservoir = append(s.reservoir, value)
		} else if j := s.rng.Int63n(int64(s.count)); j < int64(s.capacity) {
			s.reservoir[j] = value
		}
	}
}

// AddBatch folds a slice of values.
func (s *StreamingNumericStats) AddBatch(values []float64) {
	for _, v := range values {
		s.Add(v)
	}
}

func (s *StreamingNumericStats) Count() uint64 { return s.count }

func (s *StreamingNumericStats) Sum() float64 { return s.sum }

func (s *StreamingNumericStats) Mean() float64 { return s.mean }

// Variance returns the population variance.
func (s *StreamingNumericStats) Variance() float64 {
	if s.count < 2 {
		return 0
	}
	return s.m2 / float64(s.count)
}

func (s *StreamingNumericStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

func (s *StreamingNumericStats) Min() float64 {
	if math.IsInf(s.min, 1) {
		return 0
	}
	return s.min
}

func (s *StreamingNumericStats) Max() float64 {
	if math.IsInf(s.max, -1) {
		return 0
	}
	return s.max
}

func (s *StreamingNumericStats) ZeroRate() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.zeroCount) / float64(s.count)
}

func (s *StreamingNumericStats) NegativeRate() float64 {
	if s.count == 0 {
		return 0
	}
	return float64(s.negativeCount) / float64(s.count)
}

// BenfordCounts returns the leading-digit counts for digits 1 through 9.
func (s *StreamingNumericStats) BenfordCounts() []uint64 {
	counts := make([]uint64, 9)
	copy(counts, s.benford[:])
	return counts
}

// BenfordDistribution returns the leading-digit frequencies, or nil when no
// value contributed a digit.
func (s *StreamingNumericStats) BenfordDistribution() []float64 {
	var total uint64
	for _, c := range s.benford {
		total += c
	}
	if total == 0 {
		return nil
	}
	freqs := make([]float64, 9)
	for i, c := range s.benford {
		freqs[i] = float64(c) / float64(total)
	}
	return freqs
}

// Percentiles estimates the fixed ladder from the reservoir sample.
func (s *StreamingNumericStats) Percentiles() models.Percentiles {
	if len(s.reservoir) == 0 {
		return models.Percentiles{}
	}
	sorted := make([]float64, len(s.reservoir))
	copy(sorted, s.reservoir)
	sort.Float64s(sorted)
	return percentileLadder(sorted)
}

// StreamingCategoricalStats counts categorical values with a bounded
// frequency map. Once the map is full, untracked values accumulate in an
// overflow count and low-frequency entries are pruned periodically, a lossy
// counting scheme that keeps the heavy hitters.
type StreamingCategoricalStats struct {
	count         uint64
	frequencies   map[string]uint64
	maxCategories int
	otherCount    uint64
}

// NewStreamingCategoricalStats creates an accumulator tracking at most
// maxCategories distinct values.
func NewStreamingCategoricalStats(maxCategories int) *StreamingCategoricalStats {
	return &StreamingCategoricalStats{
		frequencies:   make(map[string]uint64),
		maxCategories: maxCategories,
	}
}

// Add counts one value. Empty values are skipped.
func (s *StreamingCategoricalStats) Add(value string) {
	if value == "" {
		return
	}
	s.count++

	if _, ok := s.frequencies[value]; ok {
		s.frequencies[value]++
		return
	}
	if len(s.frequencies) < s.maxCategories {
		s.frequencies[value] = 1
		return
	}

	s.otherCount++
	if s.otherCount > uint64(s.maxCategories) {
		s.pruneLowFrequency()
	}
}

// pruneLowFrequency drops entries at or below the overflow-derived threshold
// to make room for new values.
func (s *StreamingCategoricalStats) pruneLowFrequency() {
	threshold := s.otherCount / uint64(s.maxCategories)
	for value, count := range s.frequencies {
		if count <= threshold {
			delete(s.frequencies, value)
		}
	}
	s.otherCount = 0
}

func (s *StreamingCategoricalStats) Count() uint64 { return s.count }

// Cardinality returns the number of distinct values currently tracked.
func (s *StreamingCategoricalStats) Cardinality() uint64 {
	return uint64(len(s.frequencies))
}

// OrderedCounts returns the tracked values sorted by descending count, ties
// broken by value, ready for suppression.
func (s *StreamingCategoricalStats) OrderedCounts() []privacy.CategoryCount {
	ordered := make([]privacy.CategoryCount, 0, len(s.frequencies))
	for value, count := range s.frequencies {
		ordered = append(ordered, privacy.CategoryCount{Value: value, Count: count})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Count != ordered[j].Count {
			return ordered[i].Count > ordered[j].Count
		}
		return ordered[i].Value < ordered[j].Value
	})
	return ordered
}

// Entropy returns the Shannon entropy in nats over the tracked frequencies.
func (s *StreamingCategoricalStats) Entropy() float64 {
	if s.count == 0 {
		return 0
	}
	total := float64(s.count)
	var entropy float64
	for _, count := range s.frequencies {
		if count > 0 {
			p := float64(count) / total
			entropy -= p * math.Log(p)
		}
	}
	return entropy
}

// sampleRows draws a uniform reservoir sample of k rows. The seed makes the
// sample reproducible; row order within the sample is not preserved.
func sampleRows(rows [][]string, k int, seed int64) [][]string {
	if len(rows) <= k {
		return rows
	}
	rng := rand.New(rand.NewSource(seed))
	sample := make([][]string, k)
	copy(sample, rows[:k])
	for i := k; i < len(rows); i++ {
		if j := rng.Int63n(int64(i + 1)); j < int64(k) {
			sample[j] = rows[i]
		}
	}
	return sample
}
