package hierarchy

import (
	"time"

	"github.com/openebl/pkiconsole/pkg/console/model"
)

// DeriveStatus computes the effective status of e at now.
//
// A revocation with reason CertificateHold is a reversible suspension (ON_HOLD); any other revocation is
// terminal. A zero NotAfter means the expiry is unknown and never yields EXPIRED.
func DeriveStatus(e model.Entity, now time.Time) model.Status {
	if e.RawStatus == model.RawStatusRevoked {
		if e.RevocationReason == model.RevocationReasonCertificateHold {
			return model.StatusOnHold
		}
		return model.StatusRevoked
	}
	if !e.NotAfter.IsZero() && now.After(e.NotAfter) {
		return model.StatusExpired
	}
	return model.StatusActive
}
