// internal/types/tier.go
package types

import (
	"encoding/json"
	"fmt"
)

// Tier is the capability level granted to a request after credential
// resolution. Tiers are totally ordered: TierBasic < TierAdvisory <
// TierAdminReady.
type Tier int

const (
	TierBasic Tier = iota
	TierAdvisory
	TierAdminReady
)

var tierNames = map[Tier]string{
	TierBasic:      "basic",
	TierAdvisory:   "advisory",
	TierAdminReady: "admin_ready",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// AtLeast reports whether t grants at least the capability of min.
func (t Tier) AtLeast(min Tier) bool {
	return t >= min
}

// ParseTier maps a wire-format tier name to a Tier. The empty string maps
// to TierBasic.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "", "basic":
		return TierBasic, nil
	case "advisory":
		return TierAdvisory, nil
	case "admin_ready":
		return TierAdminReady, nil
	}
	return TierBasic, fmt.Errorf("unknown authorization tier: %q", s)
}

// MarshalJSON encodes the tier as its wire name.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier from its wire name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
