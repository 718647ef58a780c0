package dsf

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/models"
)

// ValidationResult is the structured outcome of an integrity scan.
type ValidationResult struct {
	Path    string        `json:"path"`
	Valid   bool          `json:"valid"`
	Version string        `json:"version,omitempty"`
	Signed  bool          `json:"signed"`
	Entries []EntryStatus `json:"entries,omitempty"`
	Errors  []string      `json:"errors,omitempty"`
}

// EntryStatus records the checksum outcome for one archive entry.
type EntryStatus struct {
	Name       string `json:"name"`
	ChecksumOK bool   `json:"checksum_ok"`
}

// Validator performs version, checksum, and optional signature checks
// without building the typed fingerprint. Unlike Read it collects every
// problem it finds, which makes it suitable for scanning batches of
// containers.
type Validator struct {
	logger *logrus.Logger
}

// NewValidator creates a container validator.
func NewValidator(logger *logrus.Logger) *Validator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Validator{logger: logger}
}

// Validate scans one container. A non-nil error means the file could
// not be opened at all; format problems land in the result instead.
func (v *Validator) Validate(path string, verifyKey []byte) (*ValidationResult, error) {
	result := &ValidationResult{Path: path}

	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	result.Signed = hasEntry(entries, constants.EntrySignature)

	manifestJSON, ok := entries[constants.EntryManifest]
	if !ok {
		result.Errors = append(result.Errors, "missing entry "+constants.EntryManifest)
		return result, nil
	}

	var manifest models.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		result.Errors = append(result.Errors, "manifest is not valid JSON: "+err.Error())
		return result, nil
	}
	result.Version = manifest.Version

	if !constants.IsVersionSupported(manifest.Version) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported format version %q (supported: %v)", manifest.Version, constants.SupportedVersions))
	}

	names := make([]string, 0, len(manifest.Checksums))
	for name := range manifest.Checksums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, ok := entries[name]
		if !ok {
			result.Entries = append(result.Entries, EntryStatus{Name: name})
			result.Errors = append(result.Errors, "manifest references missing entry "+name)
			continue
		}
		sum := sha256.Sum256(data)
		match := hex.EncodeToString(sum[:]) == manifest.Checksums[name]
		result.Entries = append(result.Entries, EntryStatus{Name: name, ChecksumOK: match})
		if !match {
			result.Errors = append(result.Errors, "checksum mismatch on entry "+name)
		}
	}

	if !manifest.HasRequiredChecksums() {
		result.Errors = append(result.Errors, "manifest lacks required schema/statistics checksums")
	}

	if len(verifyKey) > 0 {
		if !result.Signed {
			result.Errors = append(result.Errors, "verification key supplied but archive is not signed")
		} else {
			var envelope models.SignatureEnvelope
			if err := json.Unmarshal(entries[constants.EntrySignature], &envelope); err != nil {
				result.Errors = append(result.Errors, "signature entry is not valid JSON: "+err.Error())
			} else if err := VerifyManifest(manifestJSON, &envelope, verifyKey); err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	v.logger.WithFields(logrus.Fields{
		"path":   path,
		"valid":  result.Valid,
		"errors": len(result.Errors),
	}).Debug("Container validated")
	return result, nil
}
