package schnitz

// ThresholdRequest asks the server to label Scores with Method. Matrix is
// the (n, d) alternative to Scores: one row per sample, one column per
// detector, reduced to a single score per row before thresholding. Exactly
// one of the two must be set.
type ThresholdRequest struct {
	Method  string            `json:"method"`
	Scores  []float64         `json:"scores,omitempty"`
	Matrix  [][]float64       `json:"matrix,omitempty"`
	Options *ThresholdOptions `json:"options,omitempty"`
}

// ThresholdOptions overrides the server defaults. A nil field keeps the
// default; a set field wins even when it holds a zero value, so sigma=0
// (derive the scale) and mtt_max_outliers=0 (no cap) can be requested.
type ThresholdOptions struct {
	Seed            *uint64  `json:"seed,omitempty"`
	Cluster         *string  `json:"cluster,omitempty"`
	Filter          *string  `json:"filter,omitempty"`
	Sigma           *float64 `json:"sigma,omitempty"`
	Center          *string  `json:"center,omitempty"`
	GESDAlpha       *float64 `json:"gesd_alpha,omitempty"`
	GESDMaxOutliers *int     `json:"gesd_max_outliers,omitempty"`
	MTTAlpha        *float64 `json:"mtt_alpha,omitempty"`
	MTTMaxOutliers  *int     `json:"mtt_max_outliers,omitempty"`
	MetaGroups      *int     `json:"meta_groups,omitempty"`
}

// IsZero reports whether no option is set.
func (o *ThresholdOptions) IsZero() bool {
	return o == nil || *o == ThresholdOptions{}
}

// ThresholdResponse carries the labels of a ThresholdRequest.
type ThresholdResponse struct {
	Method    string   `json:"method"`
	Labels    []int    `json:"labels"`
	Threshold *float64 `json:"threshold"`
	Outliers  int      `json:"outliers"`
	Cached    bool     `json:"cached"`
}

// MethodInfo describes one procedure served by /methods.
type MethodInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
