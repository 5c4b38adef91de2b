package hierarchy

import (
	"strings"

	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/samber/lo"
)

// PemSeparator is placed between two certificates of a chain.
const PemSeparator = "\n\n"

// BuildPemChain concatenates leafPEM and the PEM of every entity of path, in the given order.
// Surrounding whitespace of each PEM is trimmed and entities without PEM are skipped. The result is empty
// when nothing carries PEM data; callers render that as "chain unavailable".
func BuildPemChain(leafPEM string, path []model.Entity) string {
	parts := make([]string, 0, len(path)+1)
	if pem := strings.TrimSpace(leafPEM); pem != "" {
		parts = append(parts, pem)
	}
	for _, e := range path {
		if pem := strings.TrimSpace(e.PEM); pem != "" {
			parts = append(parts, pem)
		}
	}
	return strings.Join(parts, PemSeparator)
}

// SplitPemChain is the inverse of BuildPemChain.
func SplitPemChain(chain string) []string {
	if chain == "" {
		return nil
	}
	return strings.Split(chain, PemSeparator)
}

// IssuersLeafFirst returns a reversed copy of a root-first path: nearest issuer first, root last.
// This is the order the platform uses when a chain is exported.
func IssuersLeafFirst(entities []model.Entity) []model.Entity {
	reversed := make([]model.Entity, len(entities))
	copy(reversed, entities)
	return lo.Reverse(reversed)
}
