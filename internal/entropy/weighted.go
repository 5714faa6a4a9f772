package entropy

import "golang.org/x/exp/constraints"

// Weight is any numeric selection mass.
type Weight interface {
	constraints.Integer | constraints.Float
}

// Weighted pairs an outcome with its selection mass. Negative weights count
// as zero.
type Weighted[K any, W Weight] struct {
	Outcome K
	Weight  W
}

// Pick samples one outcome proportionally to its weight using a single draw
// from src. Order of choices is significant for reproducibility. Returns
// false when no choice carries positive weight.
func Pick[K any, W Weight](src Source, choices []Weighted[K, W]) (K, bool) {
	var zero K

	total := Total(choices)
	if total <= 0 {
		return zero, false
	}

	roll := src.Float64() * total
	last := -1
	for i, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		last = i
		roll -= float64(c.Weight)
		if roll < 0 {
			return c.Outcome, true
		}
	}
	// Float rounding can leave roll at exactly zero; the last live choice wins.
	return choices[last].Outcome, true
}

// Uniform builds equal-weight choices from a slice of outcomes.
func Uniform[K any](outcomes []K) []Weighted[K, int] {
	choices := make([]Weighted[K, int], len(outcomes))
	for i, o := range outcomes {
		choices[i] = Weighted[K, int]{Outcome: o, Weight: 1}
	}
	return choices
}

// Total returns the summed positive weight of choices.
func Total[K any, W Weight](choices []Weighted[K, W]) float64 {
	total := 0.0
	for _, c := range choices {
		if c.Weight > 0 {
			total += float64(c.Weight)
		}
	}
	return total
}
