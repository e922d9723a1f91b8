// Package optimization provides shared data structures for optimization results.
package optimization

// Summary captures the result of a gross-for-net search.
type Summary struct {
	TargetNet     float64  `json:"targetNet"`
	Gross         float64  `json:"gross"`
	Net           float64  `json:"net"`
	Headroom      float64  `json:"headroom"` // Net - TargetNet
	Iterations    int      `json:"iterations"`
	Converged     bool     `json:"converged"`
	Notes         []string `json:"notes,omitempty"`
	TargetDisplay string   `json:"targetDisplay,omitempty"`
	GrossDisplay  string   `json:"grossDisplay,omitempty"`
}
