package dsf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/inferloop/datasynth/pkg/constants"
	"github.com/inferloop/datasynth/pkg/errors"
	"github.com/inferloop/datasynth/pkg/models"
)

// canonicalManifest returns the RFC 8785 (JCS) canonical form of the
// manifest JSON. Signing and verification both run over this form, so
// incidental whitespace and field order never affect the MAC.
func canonicalManifest(manifestJSON []byte) ([]byte, error) {
	canonical, err := jcs.Transform(manifestJSON)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeFormat, errors.CodeMalformedManifest,
			"manifest is not canonicalizable JSON")
	}
	return canonical, nil
}

func manifestMAC(manifestJSON, key []byte) ([]byte, error) {
	canonical, err := canonicalManifest(manifestJSON)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// SignManifest computes an HMAC-SHA256 over the canonical manifest and
// wraps it in a detached signature envelope. The manifest bytes are
// never modified.
func SignManifest(manifestJSON, key []byte, keyID string) (*models.SignatureEnvelope, error) {
	if len(key) == 0 {
		return nil, errors.NewConfigurationError(errors.CodeInvalidInput, "signing key is empty")
	}
	sum, err := manifestMAC(manifestJSON, key)
	if err != nil {
		return nil, err
	}
	return &models.SignatureEnvelope{
		Algorithm: constants.SignatureAlgorithm,
		KeyID:     keyID,
		Signature: hex.EncodeToString(sum),
		SignedAt:  time.Now().UTC(),
	}, nil
}

// VerifyManifest recomputes the canonical MAC and compares it against
// the envelope in constant time.
func VerifyManifest(manifestJSON []byte, envelope *models.SignatureEnvelope, key []byte) error {
	if envelope.Algorithm != constants.SignatureAlgorithm {
		return errors.NewIntegrityError(errors.CodeSignatureInvalid,
			"unsupported signature algorithm "+envelope.Algorithm)
	}
	claimed, err := hex.DecodeString(envelope.Signature)
	if err != nil {
		return errors.NewIntegrityError(errors.CodeSignatureInvalid, "signature is not valid hex")
	}
	sum, err := manifestMAC(manifestJSON, key)
	if err != nil {
		return err
	}
	if !hmac.Equal(claimed, sum) {
		return errors.NewIntegrityError(errors.CodeSignatureInvalid,
			"manifest signature verification failed").WithContext("key_id", envelope.KeyID)
	}
	return nil
}
