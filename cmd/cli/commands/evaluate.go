package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/datasynth/internal/dsf"
	"github.com/inferloop/datasynth/internal/evaluation"
)

type EvaluateOptions struct {
	OriginalFile  string
	SyntheticFile string
	Threshold     float64
	OutputFormat  string
	ShowDiff      bool
}

func NewEvaluateCmd() *cobra.Command {
	opts := &EvaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a synthetic fingerprint against the original",
		Long: `Compare two fingerprint containers and report how faithfully the
synthetic dataset reproduces the original's statistical shape.`,
		Example: `  # Evaluate with the default threshold
  datasynth-cli evaluate --original real.dsf --synthetic generated.dsf

  # Stricter threshold, JSON output
  datasynth-cli evaluate --original real.dsf --synthetic generated.dsf \
    --threshold 0.9 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&opts.OriginalFile, "original", "", "Original fingerprint container (required)")
	cmd.Flags().StringVar(&opts.SyntheticFile, "synthetic", "", "Synthetic fingerprint container (required)")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 0, "Overall pass threshold (0 = default)")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&opts.ShowDiff, "diff", false, "Print a structural diff of the two fingerprints")

	cmd.MarkFlagRequired("original")
	cmd.MarkFlagRequired("synthetic")

	return cmd
}

func runEvaluate(opts *EvaluateOptions) error {
	reader := dsf.NewReader(logrus.StandardLogger())
	original, err := reader.Read(opts.OriginalFile, nil)
	if err != nil {
		return fmt.Errorf("reading original: %w", err)
	}
	synthetic, err := reader.Read(opts.SyntheticFile, nil)
	if err != nil {
		return fmt.Errorf("reading synthetic: %w", err)
	}

	config := evaluation.DefaultConfig()
	if opts.Threshold > 0 {
		config.Threshold = opts.Threshold
	}
	report, err := evaluation.NewEvaluator(config, logrus.StandardLogger()).Evaluate(original, synthetic)
	if err != nil {
		return err
	}

	switch opts.OutputFormat {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		printFidelityReport(report)
	}

	if opts.ShowDiff {
		diff := dsf.DiffFingerprints(original, synthetic)
		if diff.IsEmpty() {
			fmt.Println("\nNo structural differences.")
		} else {
			out, err := json.MarshalIndent(diff, "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("\nStructural diff:\n%s\n", out)
		}
	}

	if !report.Passes {
		return fmt.Errorf("fidelity %.3f below threshold %.3f", report.OverallScore, report.Threshold)
	}
	return nil
}

func printFidelityReport(report *evaluation.FidelityReport) {
	fmt.Println("Fidelity Report")
	fmt.Println("===============")
	fmt.Printf("Overall:     %.3f (threshold %.3f)\n", report.OverallScore, report.Threshold)
	fmt.Printf("Statistical: %.3f\n", report.StatisticalFidelity)
	fmt.Printf("Schema:      %.3f\n", report.SchemaFidelity)
	if report.CorrelationFidelity != nil {
		fmt.Printf("Correlation: %.3f\n", *report.CorrelationFidelity)
	}
	if report.RuleCompliance != nil {
		fmt.Printf("Rules:       %.3f\n", *report.RuleCompliance)
	}
	if report.AnomalyFidelity != nil {
		fmt.Printf("Anomalies:   %.3f\n", *report.AnomalyFidelity)
	}
	if report.Passes {
		fmt.Println("\nResult: PASS")
	} else {
		fmt.Println("\nResult: FAIL")
	}
}
