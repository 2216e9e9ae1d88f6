package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/threshold/internal/cluster"
	"github.com/tensorplex-labs/threshold/internal/config"
	"github.com/tensorplex-labs/threshold/internal/meta"
	"github.com/tensorplex-labs/threshold/internal/scoring"
	"github.com/tensorplex-labs/threshold/internal/service"
	"github.com/tensorplex-labs/threshold/internal/threshold"
	"github.com/tensorplex-labs/threshold/pkg/schnitz"
)

// optionFlags are the procedure options settable from the command line.
// Unset flags keep the configured defaults.
type optionFlags struct {
	seed       uint64
	cluster    string
	filter     string
	sigma      float64
	center     string
	gesdAlpha  float64
	gesdMax    int
	mttAlpha   float64
	mttMax     int
	metaGroups int
	metaModel  string
}

func (f *optionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.seed, "seed", scoring.DefaultSeed, "seed for randomised procedures")
	cmd.Flags().StringVar(&f.cluster, "cluster", string(cluster.DefaultKind), "clustering backend for clust")
	cmd.Flags().StringVar(&f.filter, "filter", string(threshold.DefaultFilter), "filter for the filter procedure")
	cmd.Flags().Float64Var(&f.sigma, "sigma", 0, "filter scale, 0 derives it from the scores")
	cmd.Flags().StringVar(&f.center, "center", string(threshold.CenterMean), "center for chau (mean, median, gmean)")
	cmd.Flags().Float64Var(&f.gesdAlpha, "gesd-alpha", 0.05, "significance level for gesd")
	cmd.Flags().IntVar(&f.gesdMax, "gesd-max", 0, "maximum outliers tested by gesd, 0 for half the scores")
	cmd.Flags().Float64Var(&f.mttAlpha, "mtt-alpha", 0.99, "confidence level for mtt")
	cmd.Flags().IntVar(&f.mttMax, "mtt-max", 0, "maximum outliers rejected by mtt, 0 for no cap")
	cmd.Flags().IntVar(&f.metaGroups, "meta-groups", meta.DefaultGroups, "groups voted over by meta")
	cmd.Flags().StringVar(&f.metaModel, "meta-model", "", "path or URL of the meta model")
}

// options collects the flags the user set. It returns nil when none is set.
func (f *optionFlags) options(cmd *cobra.Command) *schnitz.ThresholdOptions {
	changed := cmd.Flags().Changed
	var o schnitz.ThresholdOptions
	if changed("seed") {
		o.Seed = &f.seed
	}
	if changed("cluster") {
		o.Cluster = &f.cluster
	}
	if changed("filter") {
		o.Filter = &f.filter
	}
	if changed("sigma") {
		o.Sigma = &f.sigma
	}
	if changed("center") {
		o.Center = &f.center
	}
	if changed("gesd-alpha") {
		o.GESDAlpha = &f.gesdAlpha
	}
	if changed("gesd-max") {
		o.GESDMaxOutliers = &f.gesdMax
	}
	if changed("mtt-alpha") {
		o.MTTAlpha = &f.mttAlpha
	}
	if changed("mtt-max") {
		o.MTTMaxOutliers = &f.mttMax
	}
	if changed("meta-groups") {
		o.MetaGroups = &f.metaGroups
	}
	if o.IsZero() {
		return nil
	}
	return &o
}

func evalCmd() *cobra.Command {
	var method, input string
	var matrix, plot bool
	var flags optionFlags

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Threshold scores read from a file or stdin",
		Long: `Threshold scores read from a file or stdin and print the labels as JSON.

Scores are a JSON array or numbers separated by commas or whitespace. With
--matrix every line (or JSON row) holds one sample scored by several
detectors, reduced to one score per sample before thresholding.

Examples:
  thresh eval -m mad -f scores.txt
  echo '[0.1, 0.2, 0.15, 0.9]' | thresh eval -m gesd
  thresh eval -m clust --cluster kmeans --matrix -f detectors.csv --plot`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("method") {
				method = cfg.Threshold.Method
			}
			m, err := threshold.ParseMethod(method)
			if err != nil {
				return err
			}

			opts, err := service.ApplyOptions(cfg.Threshold.Options(), flags.options(cmd))
			if err != nil {
				return err
			}
			modelSource := cfg.Threshold.MetaModel
			if flags.metaModel != "" {
				modelSource = flags.metaModel
			}
			if modelSource != "" {
				model, err := meta.Load(cmd.Context(), modelSource)
				if err != nil {
					return fmt.Errorf("failed to load meta model: %w", err)
				}
				opts.Predictor = model
			}

			t, err := threshold.New(m, threshold.WithOptions(opts))
			if err != nil {
				return err
			}
			t = threshold.NewInstrumented(t, nil)

			in, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			var scores []float64
			var res threshold.Result
			if matrix {
				x, err := readMatrix(in)
				if err != nil {
					return err
				}
				if res, err = threshold.EvalMatrix(t, x, opts.Seed); err != nil {
					return err
				}
				if plot {
					scores, _ = scoring.Decompose(x, opts.Seed)
				}
			} else {
				if scores, err = readScores(in); err != nil {
					return err
				}
				if res, err = t.Eval(scores); err != nil {
					return err
				}
			}

			if plot && scores != nil {
				norm, err := scoring.Normalize(scores)
				if err == nil {
					scoring.Plot(cmd.ErrOrStderr(), norm, res.Labels, fmt.Sprintf("%s labels", m))
				}
			}
			return writeJSON(cmd.OutOrStdout(), schnitz.ThresholdResponse{
				Method:    string(res.Method),
				Labels:    res.Labels,
				Threshold: res.Threshold,
				Outliers:  res.Outliers(),
			})
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(threshold.MAD), "thresholding procedure")
	cmd.Flags().StringVarP(&input, "file", "f", "-", "input file, - for stdin")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "input holds one column per detector")
	cmd.Flags().BoolVar(&plot, "plot", false, "plot the normalised scores to stderr")
	flags.register(cmd)
	return cmd
}

func methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the available procedures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, m := range threshold.Methods() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", m, m.Description())
			}
			return nil
		},
	}
}
