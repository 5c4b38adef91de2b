package pkix_test

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	gopkix "crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/openebl/pkiconsole/pkg/pkix"
	"github.com/stretchr/testify/suite"
)

type ParseCertificateTestSuite struct {
	suite.Suite
	rootPEM []byte // Self-signed in this test suite.
	leafPEM []byte // Signed by the root.
}

func TestParseCertificateTestSuite(t *testing.T) {
	suite.Run(t, new(ParseCertificateTestSuite))
}

func (s *ParseCertificateTestSuite) SetupSuite() {
	rootPrivKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)
	leafPrivKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)

	rootTemplate := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               gopkix.Name{CommonName: "Console Test Root CA"},
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		IsCA:                  true,
		BasicConstraintsValid: true,
		NotBefore:             time.Unix(1711953471, 0),
		NotAfter:              time.Unix(4867627071, 0),
	}
	leafTemplate := rootTemplate
	leafTemplate.SerialNumber = big.NewInt(2)
	leafTemplate.Subject.CommonName = "device-01"
	leafTemplate.IsCA = false
	leafTemplate.KeyUsage = x509.KeyUsageDigitalSignature

	rootDER, err := x509.CreateCertificate(rand.Reader, &rootTemplate, &rootTemplate, &rootPrivKey.PublicKey, rootPrivKey)
	s.Require().NoError(err)
	rootCert, err := x509.ParseCertificate(rootDER)
	s.Require().NoError(err)
	leafDER, err := x509.CreateCertificate(rand.Reader, &leafTemplate, rootCert, &leafPrivKey.PublicKey, rootPrivKey)
	s.Require().NoError(err)

	s.rootPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: rootDER})
	s.leafPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER})
}

func (s *ParseCertificateTestSuite) TestParseBundle() {
	bundle := bytes.Join([][]byte{s.leafPEM, s.rootPEM}, []byte("\n"))
	certs, err := pkix.ParseCertificate(append(bundle, []byte("\n\n")...))
	s.Require().NoError(err)
	s.Require().Len(certs, 2)
	s.Assert().Equal("device-01", certs[0].Subject.CommonName)
	s.Assert().Equal("Console Test Root CA", certs[1].Subject.CommonName)
	s.Assert().Equal(int64(4867627071), certs[0].NotAfter.Unix())
	s.Assert().Equal("2", certs[0].SerialNumber.String())
}

func (s *ParseCertificateTestSuite) TestParseInvalid() {
	_, err := pkix.ParseCertificate([]byte("not a certificate"))
	s.Assert().ErrorIs(err, pkix.ErrInvalidCertificate)

	_, err = pkix.ParseCertificate(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("garbage")}))
	s.Assert().Error(err)
}

func (s *ParseCertificateTestSuite) TestFingerPrint() {
	certs, err := pkix.ParseCertificate(s.rootPEM)
	s.Require().NoError(err)

	fingerPrint := pkix.GetFingerPrintFromCertificate(certs[0])
	s.Assert().True(strings.HasPrefix(fingerPrint, "sha256:"))
	s.Assert().Len(fingerPrint, len("sha256:")+64)
	s.Assert().Equal(fingerPrint, pkix.GetFingerPrintFromCertificate(certs[0]))
}
