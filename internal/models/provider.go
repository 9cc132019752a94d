package models

import (
	"fmt"
	"strings"
)

// Provider identifies the company a raw DNA export came from.
type Provider string

const (
	ProviderTwentyThreeAndMe Provider = "twenty_three_and_me"
	ProviderAncestryDNA      Provider = "ancestry_dna"
	ProviderMyHeritage       Provider = "my_heritage"
	ProviderFamilyTreeDNA    Provider = "family_tree_dna"
	ProviderGeneric          Provider = "generic"
)

// ProviderInfo is the display metadata for a provider.
type ProviderInfo struct {
	Provider    Provider `json:"provider" yaml:"provider"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Extension   string   `json:"extension" yaml:"extension"`
}

var providerTable = []ProviderInfo{
	{ProviderTwentyThreeAndMe, "23andMe", ".txt"},
	{ProviderAncestryDNA, "AncestryDNA", ".txt"},
	{ProviderMyHeritage, "MyHeritage", ".csv"},
	{ProviderFamilyTreeDNA, "FamilyTreeDNA", ".csv"},
	{ProviderGeneric, "Other / VCF", ".vcf"},
}

// backend spellings accepted on input
var providerAliases = map[string]Provider{
	"23andme":       ProviderTwentyThreeAndMe,
	"ancestrydna":   ProviderAncestryDNA,
	"myheritage":    ProviderMyHeritage,
	"familytreedna": ProviderFamilyTreeDNA,
}

// Providers returns the supported providers in display order.
func Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(providerTable))
	copy(out, providerTable)
	return out
}

// ParseProvider resolves a provider tag, accepting canonical values and backend aliases.
// An empty string is returned as an empty Provider with no error so callers can
// apply their own "missing provider" handling.
func ParseProvider(s string) (Provider, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if p := Provider(s); p.Valid() {
		return p, nil
	}
	if p, ok := providerAliases[s]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unsupported provider %q", s)
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	for _, info := range providerTable {
		if info.Provider == p {
			return true
		}
	}
	return false
}

// Info returns the display metadata for p.
func (p Provider) Info() (ProviderInfo, bool) {
	for _, info := range providerTable {
		if info.Provider == p {
			return info, true
		}
	}
	return ProviderInfo{}, false
}

func (p Provider) String() string { return string(p) }
