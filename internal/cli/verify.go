package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/censys/sigint/internal/config"
	"github.com/censys/sigint/internal/domain/fingerprint"
	"github.com/censys/sigint/internal/report"
	verifyengine "github.com/censys/sigint/internal/verify/engine"
)

func newVerifyCommand(a *app) *cobra.Command {
	var (
		candidatesPath string
		outPath        string
		weightFlags    []string
	)

	cmd := &cobra.Command{
		Use:   "verify <fingerprint-file>",
		Short: "Probe a candidate set and score each host against a fingerprint's probe plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := fingerprint.LoadFile(args[0])
			if err != nil {
				return err
			}

			candidates, err := report.ReadCandidatesFile(candidatesPath)
			if err != nil {
				return err
			}

			overrides, orderOverrides, err := parseWeightFlags(weightFlags)
			if err != nil {
				return err
			}
			fingerprint.ApplyWeights(&output.ProbePlan, overrides)
			for order, points := range orderOverrides {
				fingerprint.ApplyWeightByOrder(&output.ProbePlan, order, points)
			}

			summary := fingerprint.WeightsSummary(output.ProbePlan)
			for checkType, points := range summary {
				fmt.Fprintf(cmd.OutOrStdout(), "weight: %s = %d\n", checkType, points)
			}

			opts := verifyengine.NewOptions(config.NewDefaults())
			opts.Workers = a.runtime.VerifyWorkers
			opts.Timeout = a.runtime.Timeout
			opts.UserAgent = a.runtime.UserAgent
			opts.TCPCheck = a.runtime.TCPCheck
			opts.TCPTimeout = a.runtime.TCPTimeout
			opts.TCPRetries = a.runtime.TCPRetries
			opts.FetchTLS = a.runtime.FetchTLS
			opts.TLSTimeout = a.runtime.TLSTimeout
			opts.RetryThreshold = a.runtime.RetryThreshold

			eng := verifyengine.New(a.logger)
			result := eng.Verify(cmd.Context(), output.FingerprintSpec, output.ProbePlan, candidates.Candidates, opts)
			result.FingerprintRunID = output.FingerprintSpec.RunID
			result.AppName = output.FingerprintSpec.AppName

			if err := report.WriteVerificationReportFile(outPath, result); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "verified %d candidates: %d verified, %d likely, %d partial, %d unlikely, %d no_match -> %s\n",
				result.Summary.Total, result.Summary.Verified, result.Summary.Likely, result.Summary.Partial, result.Summary.Unlikely, result.Summary.NoMatch, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&candidatesPath, "candidates", "candidates.json", "path to a candidates file produced by discover")
	cmd.Flags().StringVar(&outPath, "out", "verification-report.json", "path to write the verification report")
	cmd.Flags().StringArrayVar(&weightFlags, "weight", nil, "override a probe weight, as type:points (favicon|image|title|body) or order:points")

	return cmd
}

// parseWeightFlags splits --weight values into check-type shorthand
// overrides and numeric-order overrides, mirroring the original
// tool's `parse_weights_string` dual syntax.
func parseWeightFlags(flags []string) (map[string]int, map[int]int, error) {
	typeOverrides := map[string]int{}
	orderOverrides := map[int]int{}

	for _, raw := range flags {
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, nil, fmt.Errorf("cli: invalid --weight %q, expected key:points", raw)
		}
		points, err := strconv.Atoi(value)
		if err != nil {
			return nil, nil, fmt.Errorf("cli: invalid --weight %q: %w", raw, err)
		}

		if order, err := strconv.Atoi(key); err == nil {
			orderOverrides[order] = points
			continue
		}
		typeOverrides[key] = points
	}

	return typeOverrides, orderOverrides, nil
}
