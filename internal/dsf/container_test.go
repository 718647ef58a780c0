package dsf

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/datasynth/internal/extraction"
	apperrors "github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

func fixtureFingerprint(t *testing.T) *models.Fingerprint {
	t.Helper()
	columns := []string{"entry_id", "posting_date", "account", "amount", "debit", "credit"}
	rows := make([][]string, 0, 400)
	accounts := []string{"1000", "1200", "4000"}
	for i := 0; i < 400; i++ {
		amount := 10.0 + float64(i%97)*3.5
		rows = append(rows, []string{
			fmt.Sprintf("E%05d", i),
			fmt.Sprintf("2024-%02d-%02d", 1+i%12, 1+i%28),
			accounts[i%3],
			fmt.Sprintf("%.2f", amount),
			fmt.Sprintf("%.2f", amount),
			fmt.Sprintf("%.2f", amount),
		})
	}
	source := extraction.NewMemorySource("ledger", columns, rows)
	fp, err := extraction.NewFingerprintExtractor(extraction.DefaultConfig(), nil).Extract(source)
	require.NoError(t, err)
	return fp
}

func writeFixture(t *testing.T, fp *models.Fingerprint, opts *WriteOptions) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.dsf")
	require.NoError(t, NewWriter(nil).Write(fp, path, opts))
	return path
}

// tamperEntry rewrites the archive with one byte flipped inside the
// named entry.
func tamperEntry(t *testing.T, path, entryName string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)

	type pair struct {
		name string
		data []byte
	}
	var contents []pair
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		if f.Name == entryName {
			data[len(data)/2] ^= 0xff
		}
		contents = append(contents, pair{f.Name, data})
	}
	require.NoError(t, zr.Close())

	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for _, c := range contents {
		w, err := zw.Create(c.name)
		require.NoError(t, err)
		_, err = w.Write(c.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestRoundTrip(t *testing.T) {
	fp := fixtureFingerprint(t)
	path := writeFixture(t, fp, nil)

	got, err := NewReader(nil).Read(path, nil)
	require.NoError(t, err)

	assert.Equal(t, fp.Manifest.Version, got.Manifest.Version)
	// Writing checksums a manifest copy; the source fingerprint stays as
	// constructed.
	assert.Empty(t, fp.Manifest.Checksums)
	assert.True(t, got.Manifest.HasRequiredChecksums())
	assert.Equal(t, fp.Manifest.Privacy, got.Manifest.Privacy)
	assert.True(t, fp.Manifest.CreatedAt.Equal(got.Manifest.CreatedAt))

	assert.Equal(t, fp.Schema.Tables, got.Schema.Tables)
	assert.Equal(t, fp.Statistics.NumericColumns, got.Statistics.NumericColumns)
	assert.Equal(t, fp.Statistics.CategoricalColumns, got.Statistics.CategoricalColumns)
	assert.Equal(t, fp.Statistics.TemporalColumns, got.Statistics.TemporalColumns)

	assert.Equal(t, fp.HasCorrelations(), got.HasCorrelations())
	assert.Equal(t, fp.HasIntegrity(), got.HasIntegrity())
	assert.Equal(t, fp.HasRules(), got.HasRules())
	assert.Equal(t, fp.HasAnomalies(), got.HasAnomalies())
	assert.Equal(t, fp.Correlations.Matrices, got.Correlations.Matrices)
	assert.Equal(t, fp.Correlations.Copulas, got.Correlations.Copulas)

	assert.Equal(t, fp.PrivacyAudit.TotalEpsilonSpent, got.PrivacyAudit.TotalEpsilonSpent)
	assert.Equal(t, fp.PrivacyAudit.Summary, got.PrivacyAudit.Summary)
	assert.Len(t, got.PrivacyAudit.Actions, len(fp.PrivacyAudit.Actions))
}

func TestRoundTripWithoutOptionalComponents(t *testing.T) {
	cfg := extraction.DefaultConfig()
	cfg.ExtractCorrelations = false
	cfg.ExtractIntegrity = false
	cfg.ExtractRules = false
	cfg.ExtractAnomalies = false

	columns := []string{"ref", "amount"}
	rows := make([][]string, 60)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("R%03d", i), fmt.Sprintf("%.2f", 10.0+float64(i))}
	}
	fp, err := extraction.NewFingerprintExtractor(cfg, nil).Extract(extraction.NewMemorySource("mini", columns, rows))
	require.NoError(t, err)

	path := writeFixture(t, fp, nil)
	got, err := NewReader(nil).Read(path, nil)
	require.NoError(t, err)

	assert.False(t, got.HasCorrelations())
	assert.False(t, got.HasIntegrity())
	assert.False(t, got.HasRules())
	assert.False(t, got.HasAnomalies())
	assert.Equal(t, fp.Statistics.NumericColumns, got.Statistics.NumericColumns)
}

func TestTamperDetection(t *testing.T) {
	fp := fixtureFingerprint(t)

	for _, entryName := range []string{"schema.yaml", "statistics.yaml", "privacy_audit.json"} {
		path := writeFixture(t, fp, nil)
		tamperEntry(t, path, entryName)

		_, err := NewReader(nil).Read(path, nil)
		require.Error(t, err)

		var mismatch *apperrors.ChecksumMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, entryName, mismatch.Entry)
		assert.ErrorIs(t, err, apperrors.ErrChecksumMismatch)
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	fp := fixtureFingerprint(t)
	key := []byte("k1-secret-material")
	path := writeFixture(t, fp, &WriteOptions{SigningKey: key, KeyID: "k1"})

	signed, err := IsSigned(path)
	require.NoError(t, err)
	assert.True(t, signed)

	_, err = NewReader(nil).Read(path, &ReadOptions{VerifyKey: key})
	require.NoError(t, err)
}

func TestSignatureWrongKeyFails(t *testing.T) {
	fp := fixtureFingerprint(t)
	path := writeFixture(t, fp, &WriteOptions{SigningKey: []byte("k1-secret"), KeyID: "k1"})

	_, err := NewReader(nil).Read(path, &ReadOptions{VerifyKey: []byte("k2-secret")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSignatureInvalid)
}

func TestChecksumFailsBeforeSignature(t *testing.T) {
	fp := fixtureFingerprint(t)
	key := []byte("k1-secret")
	path := writeFixture(t, fp, &WriteOptions{SigningKey: key, KeyID: "k1"})
	tamperEntry(t, path, "schema.yaml")

	_, err := NewReader(nil).Read(path, &ReadOptions{VerifyKey: key})
	require.Error(t, err)
	// The broken checksum must surface even though the signature would
	// also fail to match the altered archive.
	assert.ErrorIs(t, err, apperrors.ErrChecksumMismatch)
}

func TestVerifyKeyOnUnsignedArchive(t *testing.T) {
	fp := fixtureFingerprint(t)
	path := writeFixture(t, fp, nil)

	signed, err := IsSigned(path)
	require.NoError(t, err)
	assert.False(t, signed)

	_, err = NewReader(nil).Read(path, &ReadOptions{VerifyKey: []byte("whatever")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotSigned)
}

func TestUnsupportedVersionRejected(t *testing.T) {
	fp := fixtureFingerprint(t)
	fp.Manifest.Version = "9.9.9"
	path := writeFixture(t, fp, nil)

	_, err := NewReader(nil).Read(path, nil)
	require.Error(t, err)

	var unsupported *apperrors.UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "9.9.9", unsupported.Version)
}

func TestValidatorReportsAllProblems(t *testing.T) {
	fp := fixtureFingerprint(t)
	path := writeFixture(t, fp, nil)

	result, err := NewValidator(nil).Validate(path, nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.False(t, result.Signed)
	assert.NotEmpty(t, result.Entries)
	for _, e := range result.Entries {
		assert.True(t, e.ChecksumOK, "entry %s", e.Name)
	}

	tamperEntry(t, path, "statistics.yaml")
	result, err = NewValidator(nil).Validate(path, nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestDiffFingerprints(t *testing.T) {
	a := fixtureFingerprint(t)
	same := DiffFingerprints(a, a)
	assert.True(t, same.IsEmpty())

	b := fixtureFingerprint(t)
	b.Correlations = nil
	diff := DiffFingerprints(a, b)
	assert.False(t, diff.IsEmpty())
	assert.Contains(t, diff.ComponentChanges, "correlations removed")
}
