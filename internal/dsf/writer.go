package dsf

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// WriteOptions controls container signing.
type WriteOptions struct {
	// SigningKey, when set, produces a detached signature entry over
	// the canonical manifest.
	SigningKey []byte
	KeyID      string
}

// Writer persists fingerprints as .dsf archives.
type Writer struct {
	logger *logrus.Logger
}

// NewWriter creates a container writer.
func NewWriter(logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Writer{logger: logger}
}

type entry struct {
	name string
	data []byte
}

// Write serializes the fingerprint to path. Component entries are
// checksummed into the manifest before the manifest itself is written,
// and the optional signature is computed over the final manifest bytes.
func (w *Writer) Write(fp *models.Fingerprint, path string, opts *WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed, "failed to create "+path)
	}
	defer f.Close()

	if err := w.WriteTo(fp, f, opts); err != nil {
		return err
	}

	w.logger.WithFields(logrus.Fields{
		"path":   path,
		"signed": opts != nil && len(opts.SigningKey) > 0,
	}).Info("Fingerprint container written")
	return nil
}

// WriteTo writes the archive to an arbitrary destination.
func (w *Writer) WriteTo(fp *models.Fingerprint, dst io.Writer, opts *WriteOptions) error {
	if fp == nil || fp.Manifest == nil || fp.Schema == nil || fp.Statistics == nil || fp.PrivacyAudit == nil {
		return errors.NewFormatError(errors.CodeMissingEntry, "fingerprint is missing required components")
	}

	entries, err := serializeComponents(fp)
	if err != nil {
		return err
	}

	// Checksums go into a copy so the caller's fingerprint stays
	// untouched by serialization.
	manifest := *fp.Manifest
	manifest.Checksums = make(map[string]string, len(entries))
	for _, e := range entries {
		sum := sha256.Sum256(e.data)
		manifest.AddChecksum(e.name, hex.EncodeToString(sum[:]))
	}

	manifestJSON, err := json.MarshalIndent(&manifest, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedManifest, "failed to serialize manifest")
	}

	ordered := append([]entry{{constants.EntryManifest, manifestJSON}}, entries...)

	if opts != nil && len(opts.SigningKey) > 0 {
		envelope, err := SignManifest(manifestJSON, opts.SigningKey, opts.KeyID)
		if err != nil {
			return err
		}
		sigJSON, err := json.MarshalIndent(envelope, "", "  ")
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedManifest, "failed to serialize signature")
		}
		ordered = append(ordered, entry{constants.EntrySignature, sigJSON})
	}

	zw := zip.NewWriter(dst)
	for _, e := range ordered {
		ew, err := zw.Create(e.name)
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed, "failed to create entry "+e.name)
		}
		if _, err := ew.Write(e.data); err != nil {
			return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed, "failed to write entry "+e.name)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed, "failed to finalize archive")
	}
	return nil
}

// serializeComponents renders every present component in entry order.
// Components use YAML so containers stay human-diffable; the audit
// trail is JSON like the manifest.
func serializeComponents(fp *models.Fingerprint) ([]entry, error) {
	entries := make([]entry, 0, 8)

	add := func(name string, v interface{}, asJSON bool) error {
		var data []byte
		var err error
		if asJSON {
			data, err = json.MarshalIndent(v, "", "  ")
		} else {
			data, err = yaml.Marshal(v)
		}
		if err != nil {
			return errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedComponent,
				"failed to serialize "+name)
		}
		entries = append(entries, entry{name, data})
		return nil
	}

	if err := add(constants.EntrySchema, fp.Schema, false); err != nil {
		return nil, err
	}
	if err := add(constants.EntryStatistics, fp.Statistics, false); err != nil {
		return nil, err
	}
	if fp.HasCorrelations() {
		if err := add(constants.EntryCorrelations, fp.Correlations, false); err != nil {
			return nil, err
		}
	}
	if fp.HasIntegrity() {
		if err := add(constants.EntryIntegrity, fp.Integrity, false); err != nil {
			return nil, err
		}
	}
	if fp.HasRules() {
		if err := add(constants.EntryRules, fp.Rules, false); err != nil {
			return nil, err
		}
	}
	if fp.HasAnomalies() {
		if err := add(constants.EntryAnomalies, fp.Anomalies, false); err != nil {
			return nil, err
		}
	}
	if err := add(constants.EntryPrivacyAudit, fp.PrivacyAudit, true); err != nil {
		return nil, err
	}
	return entries, nil
}
