// Package zoning holds the per-zone regulatory ceilings used by the cabida
// calculator. A Table is built once at startup and is read-only afterwards.
package zoning

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ZoneType identifies a land-use zone.
type ZoneType string

// The closed set of zones.
const (
	Residential ZoneType = "residential"
	Commercial  ZoneType = "commercial"
	Industrial  ZoneType = "industrial"
	Mixed       ZoneType = "mixed"
)

// ZoneTypes lists every zone in declaration order.
var ZoneTypes = []ZoneType{Residential, Commercial, Industrial, Mixed}

// Tags as they appear on Chilean certificates and in older clients.
var aliases = map[string]ZoneType{
	"residencial": Residential,
	"comercial":   Commercial,
	"mixto":       Mixed,
}

// ParseZoneType maps a tag to a ZoneType. Matching ignores case and
// surrounding whitespace.
func ParseZoneType(tag string) (ZoneType, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if alias, ok := aliases[normalized]; ok {
		return alias, nil
	}
	zt := ZoneType(normalized)
	if !zt.Valid() {
		return "", &UnknownZoneError{Zone: tag}
	}
	return zt, nil
}

// Valid reports whether z belongs to the closed set.
func (z ZoneType) Valid() bool {
	switch z {
	case Residential, Commercial, Industrial, Mixed:
		return true
	}
	return false
}

func (z ZoneType) String() string { return string(z) }

// Rule is the set of ceilings for one zone.
type Rule struct {
	MaxHeightMeters                float64 `json:"maxHeightMeters" yaml:"maxHeightMeters" mapstructure:"maxHeightMeters"`
	MaxConstructibilityCoefficient float64 `json:"maxConstructibilityCoefficient" yaml:"maxConstructibilityCoefficient" mapstructure:"maxConstructibilityCoefficient"`
	MaxOccupationPercentage        float64 `json:"maxOccupationPercentage" yaml:"maxOccupationPercentage" mapstructure:"maxOccupationPercentage"`
}

// Validate checks the ceilings are usable as fallbacks.
func (r Rule) Validate() error {
	if !positiveFinite(r.MaxHeightMeters) {
		return fmt.Errorf("max height must be positive, got %v", r.MaxHeightMeters)
	}
	if !positiveFinite(r.MaxConstructibilityCoefficient) {
		return fmt.Errorf("max constructibility coefficient must be positive, got %v", r.MaxConstructibilityCoefficient)
	}
	if !(r.MaxOccupationPercentage > 0 && r.MaxOccupationPercentage <= 100) {
		return fmt.Errorf("max occupation percentage must be in (0, 100], got %v", r.MaxOccupationPercentage)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// UnknownZoneError is returned for a zone tag outside the closed set.
type UnknownZoneError struct {
	Zone string
}

func (e *UnknownZoneError) Error() string {
	return fmt.Sprintf("unknown zone type %q", e.Zone)
}

// DefaultRules returns the regulatory defaults for every zone.
func DefaultRules() map[ZoneType]Rule {
	return map[ZoneType]Rule{
		Residential: {MaxHeightMeters: 23.0, MaxConstructibilityCoefficient: 2.0, MaxOccupationPercentage: 60.0},
		Commercial:  {MaxHeightMeters: 30.0, MaxConstructibilityCoefficient: 3.0, MaxOccupationPercentage: 80.0},
		Industrial:  {MaxHeightMeters: 25.0, MaxConstructibilityCoefficient: 2.5, MaxOccupationPercentage: 70.0},
		Mixed:       {MaxHeightMeters: 28.0, MaxConstructibilityCoefficient: 2.5, MaxOccupationPercentage: 70.0},
	}
}

// Table is an immutable zone-indexed rule table.
type Table struct {
	rules [zoneCount]Rule
}

const zoneCount = 4

var zoneIndex = map[ZoneType]int{
	Residential: 0,
	Commercial:  1,
	Industrial:  2,
	Mixed:       3,
}

// NewTable builds a table from the defaults with overrides applied on top.
// Override keys are parsed like request tags; a zero field in an override keeps
// the default. Every resulting rule is validated.
func NewTable(overrides map[string]Rule) (*Table, error) {
	rules := DefaultRules()

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		zt, err := ParseZoneType(key)
		if err != nil {
			return nil, fmt.Errorf("zone override: %w", err)
		}
		rules[zt] = rules[zt].merge(overrides[key])
	}

	t := &Table{}
	for _, zt := range ZoneTypes {
		rule := rules[zt]
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("zone %s: %w", zt, err)
		}
		t.rules[zoneIndex[zt]] = rule
	}
	return t, nil
}

func (r Rule) merge(override Rule) Rule {
	if override.MaxHeightMeters != 0 {
		r.MaxHeightMeters = override.MaxHeightMeters
	}
	if override.MaxConstructibilityCoefficient != 0 {
		r.MaxConstructibilityCoefficient = override.MaxConstructibilityCoefficient
	}
	if override.MaxOccupationPercentage != 0 {
		r.MaxOccupationPercentage = override.MaxOccupationPercentage
	}
	return r
}

// Default returns a table holding only the regulatory defaults.
func Default() *Table {
	t, err := NewTable(nil)
	if err != nil {
		panic(fmt.Sprintf("invalid default zone rules: %v", err))
	}
	return t
}

// Lookup returns the rule for zt.
func (t *Table) Lookup(zt ZoneType) (Rule, error) {
	idx, ok := zoneIndex[zt]
	if !ok {
		return Rule{}, &UnknownZoneError{Zone: string(zt)}
	}
	return t.rules[idx], nil
}

// All returns a copy of every rule keyed by zone.
func (t *Table) All() map[ZoneType]Rule {
	out := make(map[ZoneType]Rule, len(ZoneTypes))
	for _, zt := range ZoneTypes {
		out[zt] = t.rules[zoneIndex[zt]]
	}
	return out
}
