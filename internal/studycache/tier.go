package studycache

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Tier is the caller's subscription tier, as reported by the identity provider.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

var (
	_        pflag.Value = (*Tier)(nil)
	allTiers             = []Tier{TierFree, TierPro}
)

// ParseTier parses a tier name case-insensitively. An empty name is the free tier.
func ParseTier(value string) (Tier, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return TierFree, nil
	}
	for _, tier := range allTiers {
		if value == string(tier) {
			return tier, nil
		}
	}
	return "", fmt.Errorf("invalid tier: %s", value)
}

func (t *Tier) Set(value string) error {
	tier, err := ParseTier(value)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

func (t Tier) String() string {
	return string(t)
}

func (t *Tier) Type() string {
	return "Tier"
}
