package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/datasynth/internal/dsf"
	"github.com/inferloop/datasynth/internal/extraction"
	"github.com/inferloop/datasynth/internal/privacy"
	"github.com/inferloop/datasynth/pkg/models"
)

type ExtractOptions struct {
	InputFile      string
	OutputFile     string
	Delimiter      string
	NoHeaders      bool
	PrivacyLevel   string
	Seed           int64
	Strict         bool
	NoCorrelations bool
	NoIntegrity    bool
	NoRules        bool
	NoAnomalies    bool
	MaxSampleSize  int
	SigningKeyFile string
	KeyID          string
	ShowReport     bool
}

func NewExtractCmd() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a privacy-preserving fingerprint from a dataset",
		Long: `Extract a statistical fingerprint from a delimited dataset without
retaining individual records, and store it in a signed .dsf container.`,
		Example: `  # Basic extraction
  datasynth-cli extract --input ledger.csv --output ledger.dsf

  # Strict privacy with signing
  datasynth-cli extract --input ledger.csv --privacy-level strict \
    --signing-key key.bin --key-id prod-2026`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input delimited file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Output .dsf container (default: input name with .dsf)")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", ",", "Field delimiter")
	cmd.Flags().BoolVar(&opts.NoHeaders, "no-headers", false, "Input has no header row")
	cmd.Flags().StringVar(&opts.PrivacyLevel, "privacy-level", "standard", "Privacy preset (minimal, standard, strict)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "Seed for the noise generator")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Abort when any optional extractor fails")
	cmd.Flags().BoolVar(&opts.NoCorrelations, "no-correlations", false, "Skip correlation extraction")
	cmd.Flags().BoolVar(&opts.NoIntegrity, "no-integrity", false, "Skip integrity extraction")
	cmd.Flags().BoolVar(&opts.NoRules, "no-rules", false, "Skip business-rule extraction")
	cmd.Flags().BoolVar(&opts.NoAnomalies, "no-anomalies", false, "Skip anomaly extraction")
	cmd.Flags().IntVar(&opts.MaxSampleSize, "max-sample", 0, "Cap on rows read (0 = all)")
	cmd.Flags().StringVar(&opts.SigningKeyFile, "signing-key", "", "File holding the HMAC signing key")
	cmd.Flags().StringVar(&opts.KeyID, "key-id", "", "Identifier recorded with the signature")
	cmd.Flags().BoolVar(&opts.ShowReport, "report", false, "Print the privacy audit report")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runExtract(opts *ExtractOptions) error {
	config := extraction.DefaultConfig()
	config.Privacy = models.PrivacyConfigForLevel(models.PrivacyLevel(strings.ToLower(opts.PrivacyLevel)))
	config.Seed = opts.Seed
	config.Strict = opts.Strict
	config.ExtractCorrelations = !opts.NoCorrelations
	config.ExtractIntegrity = !opts.NoIntegrity
	config.ExtractRules = !opts.NoRules
	config.ExtractAnomalies = !opts.NoAnomalies
	if opts.MaxSampleSize > 0 {
		config.MaxSampleSize = opts.MaxSampleSize
	}

	source := extraction.NewCSVSource(opts.InputFile)
	if opts.Delimiter != "" {
		source.Delimiter = rune(opts.Delimiter[0])
	}
	source.HasHeaders = !opts.NoHeaders

	extractor := extraction.NewFingerprintExtractor(config, logrus.StandardLogger())
	fp, err := extractor.Extract(source)
	if err != nil {
		return err
	}

	var writeOpts *dsf.WriteOptions
	if opts.SigningKeyFile != "" {
		key, err := os.ReadFile(opts.SigningKeyFile)
		if err != nil {
			return fmt.Errorf("reading signing key: %w", err)
		}
		writeOpts = &dsf.WriteOptions{SigningKey: key, KeyID: opts.KeyID}
	}

	output := opts.OutputFile
	if output == "" {
		output = strings.TrimSuffix(opts.InputFile, ".csv") + ".dsf"
	}
	if err := dsf.NewWriter(logrus.StandardLogger()).Write(fp, output, writeOpts); err != nil {
		return err
	}

	fmt.Printf("Fingerprint written to %s\n", output)
	fmt.Printf("Epsilon spent: %.4f of %.4f\n",
		fp.PrivacyAudit.TotalEpsilonSpent, fp.PrivacyAudit.EpsilonBudget)
	if opts.ShowReport {
		fmt.Println()
		fmt.Print(privacy.GenerateReport(fp.PrivacyAudit))
	}
	for _, issue := range privacy.CheckAuditIssues(fp.PrivacyAudit) {
		fmt.Printf("Warning: %s\n", issue)
	}

	return nil
}
