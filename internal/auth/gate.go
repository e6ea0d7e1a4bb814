// Package auth resolves API credentials to authorization tiers and
// enforces minimum-tier requirements on protected operations.
package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/user/souentd/internal/types"
)

// Gate maps presented credentials to tiers. A gate with empty secrets
// grants only the basic tier regardless of input.
type Gate struct {
	advisorySecret string
	adminSecret    string
}

func NewGate(advisorySecret, adminSecret string) *Gate {
	return &Gate{
		advisorySecret: advisorySecret,
		adminSecret:    adminSecret,
	}
}

// Resolve returns the tier a credential grants. Unknown and empty
// credentials resolve to the basic tier; they are never an error here.
// Comparison is constant time so credential length and prefix do not
// leak through response timing.
func (g *Gate) Resolve(credential string) types.Tier {
	if credential == "" {
		return types.TierBasic
	}
	if g.adminSecret != "" && subtle.ConstantTimeCompare([]byte(credential), []byte(g.adminSecret)) == 1 {
		return types.TierAdminReady
	}
	if g.advisorySecret != "" && subtle.ConstantTimeCompare([]byte(credential), []byte(g.advisorySecret)) == 1 {
		return types.TierAdvisory
	}
	return types.TierBasic
}

// Require resolves the credential and checks it against a minimum tier.
// A missing credential on a protected operation is a forbidden error; a
// credential that was presented but grants an insufficient tier is an
// invalid-credential error when it matched nothing, forbidden when it
// matched a lower tier.
func (g *Gate) Require(credential string, min types.Tier) (types.Tier, error) {
	tier := g.Resolve(credential)
	if tier.AtLeast(min) {
		return tier, nil
	}
	if credential == "" {
		return tier, fmt.Errorf("%w: operation requires %s tier", types.ErrForbidden, min)
	}
	if tier == types.TierBasic {
		return tier, fmt.Errorf("%w: credential not recognized", types.ErrInvalidCredential)
	}
	return tier, fmt.Errorf("%w: %s tier is insufficient, operation requires %s", types.ErrForbidden, tier, min)
}
