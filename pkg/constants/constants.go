package constants

// Application constants
const (
	// Application metadata
	AppName        = "datasynth-fingerprint"
	AppDescription = "Privacy-Preserving Fingerprinting Engine"
	AppVersion     = "0.1.0"

	// Container format
	FormatName         = "dsf"
	FormatVersion      = "1.0.0"
	FileExtension      = ".dsf"
	SignatureAlgorithm = "HMAC-SHA256"
	ChecksumAlgorithm  = "sha256"

	// Container entry names
	EntryManifest     = "manifest.json"
	EntrySchema       = "schema.yaml"
	EntryStatistics   = "statistics.yaml"
	EntryCorrelations = "correlations.yaml"
	EntryIntegrity    = "integrity.yaml"
	EntryRules        = "rules.yaml"
	EntryAnomalies    = "anomalies.yaml"
	EntryPrivacyAudit = "privacy_audit.json"
	EntrySignature    = "signature.json"

	// Privacy defaults
	DefaultEpsilon           = 1.0
	DefaultKAnonymity        = 5
	DefaultOutlierPercentile = 95.0

	// Extraction defaults
	DefaultMinRows       = 10
	DefaultTopCategories = 20
	DefaultMaxCorrelated = 16
	DefaultCDFGridPoints = 101

	// Fidelity defaults
	DefaultFidelityThreshold = 0.8
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// SupportedVersions lists the container format versions this build can read.
var SupportedVersions = []string{"1.0.0"}

// IsVersionSupported reports whether a container version can be read.
func IsVersionSupported(version string) bool {
	for _, v := range SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}
