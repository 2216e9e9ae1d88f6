package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/threshold/internal/config"
	"github.com/tensorplex-labs/threshold/pkg/schnitz"
)

// remoteResult is the reply of one server when the request fans out to
// several.
type remoteResult struct {
	URL      string                     `json:"url"`
	Response *schnitz.ThresholdResponse `json:"response,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

func remoteCmd() *cobra.Command {
	var method, input string
	var urls []string
	var timeout time.Duration
	var matrix, noCompression bool
	var flags optionFlags

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Threshold scores through one or more running servers",
		Long: `Send scores to threshold servers and print the labels as JSON.

Only the options set on the command line are sent; each server fills the
rest from its own configuration. With a single --url the reply is printed
as is; with several the same request goes to every server concurrently and
the replies are printed as a list in --url order.

Examples:
  thresh remote --url http://127.0.0.1:8888 -m mad -f scores.txt
  thresh remote --url http://a:8888 --url http://b:8888 --matrix -f detectors.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("url") {
				urls = []string{cfg.Client.URL}
			}
			if !cmd.Flags().Changed("timeout") {
				timeout = cfg.Client.Timeout
			}

			in, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			req := schnitz.ThresholdRequest{Method: method, Options: flags.options(cmd)}
			if matrix {
				x, err := readMatrix(in)
				if err != nil {
					return err
				}
				rows, _ := x.Dims()
				req.Matrix = make([][]float64, rows)
				for i := range rows {
					req.Matrix[i] = x.RawRowView(i)
				}
			} else if req.Scores, err = readScores(in); err != nil {
				return err
			}

			client, err := schnitz.NewClient(&schnitz.ClientConfig{
				Timeout:         timeout,
				ZstdCompression: !noCompression,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			requests := make([]schnitz.ThresholdRequest, len(urls))
			responses := make([]*schnitz.ThresholdResponse, len(urls))
			for i := range urls {
				requests[i] = req
				responses[i] = &schnitz.ThresholdResponse{}
			}
			errs := schnitz.SendMany(cmd.Context(), client, urls, requests, responses)

			if len(urls) == 1 {
				if errs[0] != nil {
					return errs[0]
				}
				return writeJSON(cmd.OutOrStdout(), responses[0])
			}

			results := make([]remoteResult, len(urls))
			for i, url := range urls {
				results[i].URL = url
				if errs[i] != nil {
					results[i].Error = errs[i].Error()
					continue
				}
				results[i].Response = responses[i]
			}
			if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "thresholding procedure, empty for the server default")
	cmd.Flags().StringVarP(&input, "file", "f", "-", "input file, - for stdin")
	cmd.Flags().StringArrayVar(&urls, "url", nil, "server base URL, repeat to fan out to several servers")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "input holds one column per detector")
	cmd.Flags().BoolVar(&noCompression, "no-zstd", false, "send and accept plain JSON")
	flags.register(cmd)
	return cmd
}
