package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inferloop/datasynth/internal/dsf"
	"github.com/inferloop/datasynth/pkg/errors"
)

type ValidateOptions struct {
	InputFile     string
	VerifyKeyFile string
	OutputFormat  string
}

func NewValidateCmd() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a fingerprint container",
		Long: `Validate a .dsf container: structure, format version, per-entry
checksums, and (when a key is supplied) the manifest signature.`,
		Example: `  # Structural and checksum validation
  datasynth-cli validate --input ledger.dsf

  # Also verify the signature
  datasynth-cli validate --input ledger.dsf --verify-key key.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Container file to validate (required)")
	cmd.Flags().StringVar(&opts.VerifyKeyFile, "verify-key", "", "File holding the HMAC verification key")
	cmd.Flags().StringVar(&opts.OutputFormat, "format", "text", "Output format (text, json)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runValidate(opts *ValidateOptions) error {
	var verifyKey []byte
	if opts.VerifyKeyFile != "" {
		key, err := os.ReadFile(opts.VerifyKeyFile)
		if err != nil {
			return fmt.Errorf("reading verification key: %w", err)
		}
		verifyKey = key
	}

	result, err := dsf.NewValidator(logrus.StandardLogger()).Validate(opts.InputFile, verifyKey)
	if err != nil {
		return err
	}

	switch opts.OutputFormat {
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		printValidationResult(result)
	}

	if !result.Valid {
		return errors.NewFormatError(errors.CodeInvalidContainer,
			fmt.Sprintf("container failed validation with %d error(s)", len(result.Errors)))
	}
	return nil
}

func printValidationResult(result *dsf.ValidationResult) {
	fmt.Printf("Container: %s\n", result.Path)
	fmt.Printf("Version:   %s\n", result.Version)
	fmt.Printf("Signed:    %t\n", result.Signed)
	fmt.Println("\nEntries:")
	for _, entry := range result.Entries {
		status := "ok"
		if !entry.ChecksumOK {
			status = "CHECKSUM MISMATCH"
		}
		fmt.Printf("  %-22s %s\n", entry.Name, status)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if result.Valid {
		fmt.Println("\nContainer is valid.")
	}
}
