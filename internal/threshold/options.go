package threshold

import (
	"fmt"
	"strings"

	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/scoring"
)

// Center is the location statistic Chauvenet's criterion measures
// deviations from.
type Center string

const (
	CenterMean   Center = "mean"
	CenterMedian Center = "median"
	CenterGMean  Center = "gmean"
)

// FilterKind names the transform of the filter procedure.
type FilterKind string

const (
	FilterGaussian FilterKind = "gaussian"
	FilterSavgol   FilterKind = "savgol"
	FilterHilbert  FilterKind = "hilbert"
	FilterWiener   FilterKind = "wiener"
	FilterMedian   FilterKind = "medfilt"
	FilterDecimate FilterKind = "decimate"
	FilterDetrend  FilterKind = "detrend"
	FilterResample FilterKind = "resample"
)

const DefaultFilter = FilterWiener

// FilterKinds lists every filter transform.
func FilterKinds() []FilterKind {
	return []FilterKind{
		FilterGaussian, FilterSavgol, FilterHilbert, FilterWiener,
		FilterMedian, FilterDecimate, FilterDetrend, FilterResample,
	}
}

// Options configures every procedure; each reads only its own fields.
type Options struct {
	// Seed drives the Monte-Carlo search, the seeded clustering backends
	// and the multi-detector reduction.
	Seed uint64 `json:"seed" yaml:"seed"`

	Cluster cluster.Kind `json:"cluster" yaml:"cluster"`

	Filter FilterKind `json:"filter" yaml:"filter"`
	// Sigma is the filter scale; 0 derives it from the scores as n·std.
	Sigma float64 `json:"sigma" yaml:"sigma"`

	Center Center `json:"center" yaml:"center"`

	GESDAlpha float64 `json:"gesd_alpha" yaml:"gesd_alpha"`
	// GESDMaxOutliers caps the candidates tested; 0 means half the scores.
	GESDMaxOutliers int `json:"gesd_max_outliers" yaml:"gesd_max_outliers"`

	MTTAlpha float64 `json:"mtt_alpha" yaml:"mtt_alpha"`
	// MTTMaxOutliers caps the rejections; 0 means no cap.
	MTTMaxOutliers int `json:"mtt_max_outliers" yaml:"mtt_max_outliers"`

	MetaGroups int            `json:"meta_groups" yaml:"meta_groups"`
	Predictor  meta.Predictor `json:"-" yaml:"-"`
}

type Option func(*Options)

func WithSeed(seed uint64) Option {
	return func(o *Options) {
		o.Seed = seed
	}
}

func WithCluster(kind cluster.Kind) Option {
	return func(o *Options) {
		o.Cluster = kind
	}
}

// WithFilter selects the filter transform and its scale; sigma 0 is auto.
func WithFilter(kind FilterKind, sigma float64) Option {
	return func(o *Options) {
		o.Filter = kind
		o.Sigma = sigma
	}
}

func WithCenter(center Center) Option {
	return func(o *Options) {
		o.Center = center
	}
}

func WithGESD(alpha float64, maxOutliers int) Option {
	return func(o *Options) {
		o.GESDAlpha = alpha
		o.GESDMaxOutliers = maxOutliers
	}
}

func WithMTT(alpha float64, maxOutliers int) Option {
	return func(o *Options) {
		o.MTTAlpha = alpha
		o.MTTMaxOutliers = maxOutliers
	}
}

func WithPredictor(p meta.Predictor) Option {
	return func(o *Options) {
		o.Predictor = p
	}
}

func WithMetaGroups(groups int) Option {
	return func(o *Options) {
		o.MetaGroups = groups
	}
}

// WithOptions replaces the whole option set, e.g. one decoded from a
// request or a config file.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		*o = opts
	}
}

// normalize lower-cases the enum fields and fills empty ones with their
// defaults.
func (o Options) normalize() Options {
	def := DefaultOptions()
	o.Cluster = cluster.Kind(strings.ToLower(strings.TrimSpace(string(o.Cluster))))
	if o.Cluster == "" {
		o.Cluster = def.Cluster
	}
	o.Filter = FilterKind(strings.ToLower(strings.TrimSpace(string(o.Filter))))
	if o.Filter == "" {
		o.Filter = def.Filter
	}
	o.Center = Center(strings.ToLower(strings.TrimSpace(string(o.Center))))
	if o.Center == "" {
		o.Center = def.Center
	}
	if o.GESDAlpha == 0 {
		o.GESDAlpha = def.GESDAlpha
	}
	if o.MTTAlpha == 0 {
		o.MTTAlpha = def.MTTAlpha
	}
	if o.MetaGroups == 0 {
		o.MetaGroups = def.MetaGroups
	}
	return o
}

// Validate reports the first out of range option.
func (o Options) Validate() error {
	if _, err := cluster.ParseKind(string(o.Cluster)); err != nil {
		return err
	}
	switch o.Filter {
	case FilterGaussian, FilterSavgol, FilterHilbert, FilterWiener,
		FilterMedian, FilterDecimate, FilterDetrend, FilterResample:
	default:
		return fmt.Errorf("%w: unknown filter %q", scoring.ErrValidation, o.Filter)
	}
	switch o.Center {
	case CenterMean, CenterMedian, CenterGMean:
	default:
		return fmt.Errorf("%w: unknown center %q", scoring.ErrValidation, o.Center)
	}
	if o.Sigma < 0 {
		return fmt.Errorf("%w: sigma must be positive or 0 for auto, got %v", scoring.ErrValidation, o.Sigma)
	}
	if o.GESDAlpha <= 0 || o.GESDAlpha >= 1 {
		return fmt.Errorf("%w: gesd alpha must be in (0, 1), got %v", scoring.ErrValidation, o.GESDAlpha)
	}
	if o.MTTAlpha <= 0 || o.MTTAlpha >= 1 {
		return fmt.Errorf("%w: mtt alpha must be in (0, 1), got %v", scoring.ErrValidation, o.MTTAlpha)
	}
	if o.GESDMaxOutliers < 0 || o.MTTMaxOutliers < 0 {
		return fmt.Errorf("%w: max outliers must not be negative", scoring.ErrValidation)
	}
	if o.MetaGroups < 1 {
		return fmt.Errorf("%w: meta groups must be at least 1, got %d", scoring.ErrValidation, o.MetaGroups)
	}
	return nil
}
