package model

import "time"

type EntityKind string
type RawStatus string

const (
	KindCA          EntityKind = "CA"
	KindCertificate EntityKind = "CERTIFICATE"

	RawStatusActive   RawStatus = "ACTIVE"
	RawStatusRevoked  RawStatus = "REVOKED"
	RawStatusExpired  RawStatus = "EXPIRED"
	RawStatusInactive RawStatus = "INACTIVE"

	// IssuerSelfSigned is the issuer reference of a root. An empty IssuerRef is treated the same way.
	IssuerSelfSigned = "self-signed"

	// RevocationReasonCertificateHold marks a suspended, reversible revocation.
	RevocationReasonCertificateHold = "CertificateHold"
)

// Entity unifies CAs and end-entity certificates for hierarchy resolution.
// Children are never stored on the entity, they are derived from a collection.
type Entity struct {
	ID               string     `json:"id"`                          // Unique ID of the CA, or serial number of a certificate.
	Kind             EntityKind `json:"kind"`                        // CA or CERTIFICATE.
	IssuerRef        string     `json:"issuer_ref"`                  // ID of the issuing CA. IssuerSelfSigned, empty or ID itself for roots.
	SubjectCN        string     `json:"subject_cn,omitempty"`        // Common name of the subject.
	SerialNumber     string     `json:"serial_number,omitempty"`     // Serial number of the certificate.
	NotBefore        time.Time  `json:"not_before"`                  // Start of the validity window.
	NotAfter         time.Time  `json:"not_after"`                   // End of the validity window.
	RawStatus        RawStatus  `json:"raw_status"`                  // Status reported by the API.
	RevocationReason string     `json:"revocation_reason,omitempty"` // Reason of the revocation, if any.
	PEM              string     `json:"pem,omitempty"`               // PEM encoded certificate. Empty when unknown.
}

// IsSelfSigned reports whether the entity terminates a chain of trust.
func (e Entity) IsSelfSigned() bool {
	return e.IssuerRef == "" || e.IssuerRef == IssuerSelfSigned || e.IssuerRef == e.ID
}

func (e Entity) HasPEM() bool {
	return e.PEM != ""
}

// DisplayName is the subject common name when known, the ID otherwise.
func (e Entity) DisplayName() string {
	if e.SubjectCN != "" {
		return e.SubjectCN
	}
	return e.ID
}
