package client

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/openebl/pkiconsole/pkg/pkix"
	"github.com/sirupsen/logrus"
)

type listResponse[T any] struct {
	Next string `json:"next"` // Bookmark of the next page. Empty on the last page.
	List []T    `json:"list"`
}

type subject struct {
	CommonName string `json:"common_name"`
}

type issuerMetadata struct {
	ID           string `json:"id"`            // ID of the issuing CA. Equals the CA's own ID for roots.
	SerialNumber string `json:"serial_number"` // Serial number of the issuing CA certificate.
}

type certificateRecord struct {
	SerialNumber     string         `json:"serial_number"`
	Subject          subject        `json:"subject"`
	IssuerMetadata   issuerMetadata `json:"issuer_metadata"`
	Status           string         `json:"status"`
	RevocationReason string         `json:"revocation_reason"`
	ValidFrom        time.Time      `json:"valid_from"`
	ValidTo          time.Time      `json:"valid_to"`
	Certificate      string         `json:"certificate"` // Base64 encoded PEM. Plain PEM is accepted too.
}

type caRecord struct {
	ID          string            `json:"id"`
	Certificate certificateRecord `json:"certificate"`
}

func (r caRecord) toEntity() model.Entity {
	e := r.Certificate.toEntity()
	e.ID = r.ID
	e.Kind = model.KindCA
	return e
}

func (r certificateRecord) toEntity() model.Entity {
	e := model.Entity{
		ID:               r.SerialNumber,
		Kind:             model.KindCertificate,
		IssuerRef:        r.IssuerMetadata.ID,
		SubjectCN:        r.Subject.CommonName,
		SerialNumber:     r.SerialNumber,
		NotBefore:        r.ValidFrom,
		NotAfter:         r.ValidTo,
		RawStatus:        model.RawStatus(strings.ToUpper(r.Status)),
		RevocationReason: r.RevocationReason,
		PEM:              decodePEM(r.Certificate),
	}
	backfillFromPEM(&e)
	return e
}

func decodePEM(certificate string) string {
	certificate = strings.TrimSpace(certificate)
	if certificate == "" || strings.HasPrefix(certificate, "-----BEGIN") {
		return certificate
	}
	raw, err := base64.StdEncoding.DecodeString(certificate)
	if err != nil {
		logrus.Warnf("decodePEM(): certificate is neither PEM nor base64: %v", err)
		return ""
	}
	return string(raw)
}

// backfillFromPEM completes the fields the API left empty from the certificate itself.
func backfillFromPEM(e *model.Entity) {
	if e.PEM == "" || (!e.NotAfter.IsZero() && e.SubjectCN != "" && e.SerialNumber != "") {
		return
	}
	certs, err := pkix.ParseCertificate([]byte(e.PEM))
	if err != nil || len(certs) == 0 {
		logrus.Warnf("backfillFromPEM(): fail to parse certificate of %q: %v", e.ID, err)
		return
	}
	cert := certs[0]
	if e.NotAfter.IsZero() {
		e.NotBefore = cert.NotBefore
		e.NotAfter = cert.NotAfter
	}
	if e.SubjectCN == "" {
		e.SubjectCN = cert.Subject.CommonName
	}
	if e.SerialNumber == "" {
		e.SerialNumber = cert.SerialNumber.String()
	}
}
