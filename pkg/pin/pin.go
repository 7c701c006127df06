package pin

import (
	"crypto"
	_ "crypto/sha256"
	"crypto/x509"
	"encoding/base64"

	"github.com/pkg/errors"
)

// Hash is the digest used for every pin
const Hash = crypto.SHA256

// OkHTTPPrefix is prepended to SPKI pins so they can be pasted into an OkHttp CertificatePinner
const OkHTTPPrefix = "sha256/"

var (
	// ErrDigestUnavailable is returned when the hash is not linked into the binary
	ErrDigestUnavailable = errors.New("SHA-256 digest is not available")
	// ErrNoEncoding is returned for a certificate without DER bytes
	ErrNoEncoding = errors.New("certificate has no DER encoding")
)

// Sum returns the standard padded Base64 encoding of the SHA-256 digest of b
func Sum(b []byte) (string, error) {
	if !Hash.Available() {
		return "", ErrDigestUnavailable
	}
	h := Hash.New()
	h.Write(b)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Certificate returns the pin of cert, computed over its DER encoding
func Certificate(cert *x509.Certificate) (string, error) {
	if cert == nil || len(cert.Raw) == 0 {
		return "", ErrNoEncoding
	}
	return Sum(cert.Raw)
}

// SPKI returns the OkHttp style pin of the certificate's public key
func SPKI(cert *x509.Certificate) (string, error) {
	if cert == nil || len(cert.RawSubjectPublicKeyInfo) == 0 {
		return "", errors.Wrap(ErrNoEncoding, "subject public key info")
	}
	s, err := Sum(cert.RawSubjectPublicKeyInfo)
	if err != nil {
		return "", err
	}
	return OkHTTPPrefix + s, nil
}
