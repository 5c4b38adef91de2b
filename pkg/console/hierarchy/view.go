package hierarchy

import (
	"time"

	"github.com/openebl/pkiconsole/pkg/console/model"
)

// DetailView is what a detail screen shows for one entity. It is implemented by CAView and
// CertificateView only; renderers switch on the concrete type.
type DetailView interface {
	Subject() model.Entity
	EffectiveStatus() model.Status
	PemChain() string
	// ChainIncomplete is set when the path to the root could not be fully resolved.
	ChainIncomplete() bool

	detailView()
}

type CAView struct {
	CA       model.Entity
	Status   model.Status
	Path     Path // Root first, CA last.
	Chain    string
	Children []model.Entity
}

type CertificateView struct {
	Certificate model.Entity
	Status      model.Status
	IssuerPath  Path // Root first, issuing CA last. The certificate itself is not part of it.
	Chain       string
}

// NewCAView builds the detail view of the CA caID. The second return value is false when caID is not
// part of collection. The CA always ends the path, whatever opts say.
func NewCAView(caID string, collection []model.Entity, now time.Time, opts ...ResolveOption) (CAView, bool) {
	path := ResolvePathToRoot(caID, collection, withTargetLast(opts)...)
	if path.Stop == StopTargetNotFound {
		return CAView{}, false
	}
	ca := path.Entities[len(path.Entities)-1]
	issuers := path.Entities[:len(path.Entities)-1]

	return CAView{
		CA:       ca,
		Status:   DeriveStatus(ca, now),
		Path:     path,
		Chain:    BuildPemChain(ca.PEM, IssuersLeafFirst(issuers)),
		Children: BuildChildIndex(collection).Children(ca.ID),
	}, true
}

// NewCertificateView builds the detail view of cert, resolving its issuers in the CA collection. The
// issuing CA always ends IssuerPath, whatever opts say.
func NewCertificateView(cert model.Entity, collection []model.Entity, now time.Time, opts ...ResolveOption) CertificateView {
	var issuerPath Path
	if cert.IsSelfSigned() {
		issuerPath = Path{Stop: StopRoot}
	} else {
		issuerPath = ResolvePathToRoot(cert.IssuerRef, collection, withTargetLast(opts)...)
	}

	return CertificateView{
		Certificate: cert,
		Status:      DeriveStatus(cert, now),
		IssuerPath:  issuerPath,
		Chain:       BuildPemChain(cert.PEM, IssuersLeafFirst(issuerPath.Entities)),
	}
}

func withTargetLast(opts []ResolveOption) []ResolveOption {
	return append(append(make([]ResolveOption, 0, len(opts)+1), opts...), withTarget())
}

func (v CAView) Subject() model.Entity         { return v.CA }
func (v CAView) EffectiveStatus() model.Status { return v.Status }
func (v CAView) PemChain() string              { return v.Chain }
func (v CAView) ChainIncomplete() bool         { return v.Path.Truncated }
func (CAView) detailView()                     {}

func (v CertificateView) Subject() model.Entity         { return v.Certificate }
func (v CertificateView) EffectiveStatus() model.Status { return v.Status }
func (v CertificateView) PemChain() string              { return v.Chain }
func (v CertificateView) ChainIncomplete() bool {
	return v.IssuerPath.Truncated || v.IssuerPath.Stop == StopTargetNotFound
}
func (CertificateView) detailView() {}
