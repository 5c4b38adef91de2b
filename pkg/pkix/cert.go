package pkix

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
)

var ErrInvalidCertificate = errors.New("invalid certificate")

// ParseCertificate parses every certificate of a PEM bundle, in order. The first one is usually the
// leaf, the others its issuers.
func ParseCertificate(certRaw []byte) ([]x509.Certificate, error) {
	certs := make([]x509.Certificate, 0, 4)
	for {
		pemBlock, remains := pem.Decode(certRaw)
		if pemBlock == nil {
			return nil, ErrInvalidCertificate
		}

		cert, err := x509.ParseCertificate(pemBlock.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, *cert)

		if len(bytes.TrimSpace(remains)) == 0 {
			break
		}
		certRaw = remains
	}

	return certs, nil
}

// GetFingerPrintFromCertificate returns the fingerprint in [HASH_ALGORITHM]:[FINGERPRINT_HEX_ENCODED] form.
func GetFingerPrintFromCertificate(cert x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}
