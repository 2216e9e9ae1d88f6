package threshold

import (
	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/scoring"
)

const (
	// defaultLimit is the threshold above every normalised score: nothing is
	// flagged.
	defaultLimit = 1.0
	// rejectLimit is the starting limit of the rejection tests and of the
	// peak width search, above the normalised range.
	rejectLimit = 1.1

	aucpGridFactor = 2

	ebTrials = 5000

	fwfmGridFactor = 3
	fwfmProminence = 0.75
	fwfmRelHeight  = 0.99

	mollRefinement = 5
	mollWidth      = 1.0
)

func DefaultOptions() Options {
	return Options{
		Seed:       scoring.DefaultSeed,
		Cluster:    cluster.DefaultKind,
		Filter:     DefaultFilter,
		Center:     CenterMean,
		GESDAlpha:  0.05,
		MTTAlpha:   0.99,
		MetaGroups: meta.DefaultGroups,
	}
}
