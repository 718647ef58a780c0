package dsf

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// ReadOptions controls signature verification on read.
type ReadOptions struct {
	// VerifyKey, when set, requires the archive to carry a signature
	// entry whose MAC matches the canonical manifest under this key.
	VerifyKey []byte
}

// Reader loads fingerprints from .dsf archives. Every read verifies
// the format version, then every claimed checksum, then (if requested)
// the signature, before any component is deserialized.
type Reader struct {
	logger *logrus.Logger
}

// NewReader creates a container reader.
func NewReader(logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reader{logger: logger}
}

// Read loads and fully verifies a fingerprint container.
func (r *Reader) Read(path string, opts *ReadOptions) (*models.Fingerprint, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}

	_, manifest, err := verifyContainer(entries, opts)
	if err != nil {
		return nil, err
	}

	fp, err := decodeComponents(entries, manifest)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"path":    path,
		"version": manifest.Version,
		"signed":  hasEntry(entries, constants.EntrySignature),
	}).Debug("Fingerprint container read")
	return fp, nil
}

// IsSigned reports whether the archive carries a signature entry. It
// never parses or verifies the signature.
func IsSigned(path string) (bool, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return false, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeInvalidContainer,
			"failed to open "+path)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == constants.EntrySignature {
			return true, nil
		}
	}
	return false, nil
}

func loadEntries(path string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeInvalidContainer,
			"failed to open "+path)
	}
	defer zr.Close()

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeInvalidContainer,
				"failed to open entry "+f.Name)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeInvalidContainer,
				"failed to read entry "+f.Name)
		}
		entries[f.Name] = data
	}
	return entries, nil
}

func hasEntry(entries map[string][]byte, name string) bool {
	_, ok := entries[name]
	return ok
}

// verifyContainer runs the fatal pre-deserialization checks in order:
// version gate, per-entry checksums, then signature.
func verifyContainer(entries map[string][]byte, opts *ReadOptions) ([]byte, *models.Manifest, error) {
	manifestJSON, ok := entries[constants.EntryManifest]
	if !ok {
		return nil, nil, errors.NewFormatError(errors.CodeMissingEntry,
			"archive has no "+constants.EntryManifest+" entry")
	}

	var manifest models.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedManifest,
			"manifest is not valid JSON")
	}

	if !constants.IsVersionSupported(manifest.Version) {
		return nil, nil, &errors.UnsupportedVersionError{
			Version:   manifest.Version,
			Supported: constants.SupportedVersions,
		}
	}

	names := make([]string, 0, len(manifest.Checksums))
	for name := range manifest.Checksums {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, ok := entries[name]
		if !ok {
			return nil, nil, errors.NewFormatError(errors.CodeMissingEntry,
				"manifest references missing entry "+name)
		}
		sum := sha256.Sum256(data)
		actual := hex.EncodeToString(sum[:])
		if expected := manifest.Checksums[name]; actual != expected {
			return nil, nil, &errors.ChecksumMismatchError{Entry: name, Expected: expected, Actual: actual}
		}
	}

	if opts != nil && len(opts.VerifyKey) > 0 {
		sigJSON, ok := entries[constants.EntrySignature]
		if !ok {
			return nil, nil, errors.NewIntegrityError(errors.CodeNotSigned,
				"verification key supplied but archive is not signed")
		}
		var envelope models.SignatureEnvelope
		if err := json.Unmarshal(sigJSON, &envelope); err != nil {
			return nil, nil, errors.WrapError(err, errors.ErrorTypeIntegrity, errors.CodeSignatureInvalid,
				"signature entry is not valid JSON")
		}
		if err := VerifyManifest(manifestJSON, &envelope, opts.VerifyKey); err != nil {
			return nil, nil, err
		}
	}

	return manifestJSON, &manifest, nil
}

// decodeComponents deserializes the typed fingerprint after all
// verification has passed.
func decodeComponents(entries map[string][]byte, manifest *models.Manifest) (*models.Fingerprint, error) {
	var schema models.SchemaFingerprint
	if err := decodeYAML(entries, constants.EntrySchema, &schema); err != nil {
		return nil, err
	}
	var statistics models.StatisticsFingerprint
	if err := decodeYAML(entries, constants.EntryStatistics, &statistics); err != nil {
		return nil, err
	}

	auditJSON, ok := entries[constants.EntryPrivacyAudit]
	if !ok {
		return nil, errors.NewFormatError(errors.CodeMissingEntry,
			"archive has no "+constants.EntryPrivacyAudit+" entry")
	}
	var audit models.PrivacyAudit
	if err := json.Unmarshal(auditJSON, &audit); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedComponent,
			"privacy audit is not valid JSON")
	}

	fp := models.NewFingerprint(manifest, &schema, &statistics, &audit)

	if hasEntry(entries, constants.EntryCorrelations) {
		var correlations models.CorrelationFingerprint
		if err := decodeYAML(entries, constants.EntryCorrelations, &correlations); err != nil {
			return nil, err
		}
		fp.WithCorrelations(&correlations)
	}
	if hasEntry(entries, constants.EntryIntegrity) {
		var integrity models.IntegrityFingerprint
		if err := decodeYAML(entries, constants.EntryIntegrity, &integrity); err != nil {
			return nil, err
		}
		fp.WithIntegrity(&integrity)
	}
	if hasEntry(entries, constants.EntryRules) {
		var rules models.RulesFingerprint
		if err := decodeYAML(entries, constants.EntryRules, &rules); err != nil {
			return nil, err
		}
		fp.WithRules(&rules)
	}
	if hasEntry(entries, constants.EntryAnomalies) {
		var anomalies models.AnomalyFingerprint
		if err := decodeYAML(entries, constants.EntryAnomalies, &anomalies); err != nil {
			return nil, err
		}
		fp.WithAnomalies(&anomalies)
	}
	return fp, nil
}

func decodeYAML(entries map[string][]byte, name string, out interface{}) error {
	data, ok := entries[name]
	if !ok {
		return errors.NewFormatError(errors.CodeMissingEntry, "archive has no "+name+" entry")
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedComponent,
			name+" is not valid YAML")
	}
	return nil
}
