package config

// Range is an inclusive index range used to restrict rendering to a subset
// of triangles or pixels for debugging.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Clamp returns the range limited to [0, count-1]. A nil range selects
// everything. Each bound is clamped on its own, so the result does not
// depend on which bound is out of range; lo > hi means nothing is selected.
func (r *Range) Clamp(count int) (lo, hi int) {
	if count <= 0 {
		return 0, -1
	}
	if r == nil {
		return 0, count - 1
	}
	return clamp(r.Min, 0, count-1), clamp(r.Max, 0, count-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
