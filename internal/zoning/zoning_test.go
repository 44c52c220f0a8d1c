package zoning

import (
	"errors"
	"math"
	"testing"
)

func TestParseZoneType(t *testing.T) {
	tests := []struct {
		tag      string
		expected ZoneType
		wantErr  bool
	}{
		{tag: "residential", expected: Residential},
		{tag: "Residencial", expected: Residential},
		{tag: "  COMERCIAL ", expected: Commercial},
		{tag: "industrial", expected: Industrial},
		{tag: "mixto", expected: Mixed},
		{tag: "mixed", expected: Mixed},
		{tag: "rural", wantErr: true},
		{tag: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseZoneType(tt.tag)
			if tt.wantErr {
				var unknown *UnknownZoneError
				if !errors.As(err, &unknown) {
					t.Fatalf("ParseZoneType(%q) error = %v, expected UnknownZoneError", tt.tag, err)
				}
				if unknown.Zone != tt.tag {
					t.Errorf("UnknownZoneError.Zone = %q, expected %q", unknown.Zone, tt.tag)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseZoneType(%q) error = %v", tt.tag, err)
			}
			if got != tt.expected {
				t.Errorf("ParseZoneType(%q) = %s, expected %s", tt.tag, got, tt.expected)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table := Default()
	expected := map[ZoneType]Rule{
		Residential: {23, 2.0, 60},
		Commercial:  {30, 3.0, 80},
		Industrial:  {25, 2.5, 70},
		Mixed:       {28, 2.5, 70},
	}

	for zt, want := range expected {
		got, err := table.Lookup(zt)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", zt, err)
		}
		if got != want {
			t.Errorf("Lookup(%s) = %+v, expected %+v", zt, got, want)
		}
	}
	if len(table.All()) != len(ZoneTypes) {
		t.Errorf("All() returned %d rules, expected %d", len(table.All()), len(ZoneTypes))
	}
}

func TestNewTableOverrides(t *testing.T) {
	table, err := NewTable(map[string]Rule{
		"comercial": {MaxHeightMeters: 32},
		"mixed":     {MaxOccupationPercentage: 65, MaxConstructibilityCoefficient: 2.2},
	})
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	commercial, _ := table.Lookup(Commercial)
	if commercial != (Rule{MaxHeightMeters: 32, MaxConstructibilityCoefficient: 3.0, MaxOccupationPercentage: 80}) {
		t.Errorf("commercial = %+v, expected height override only", commercial)
	}
	mixed, _ := table.Lookup(Mixed)
	if mixed != (Rule{MaxHeightMeters: 28, MaxConstructibilityCoefficient: 2.2, MaxOccupationPercentage: 65}) {
		t.Errorf("mixed = %+v", mixed)
	}
	residential, _ := table.Lookup(Residential)
	if residential != DefaultRules()[Residential] {
		t.Errorf("residential should be untouched, got %+v", residential)
	}
}

func TestNewTableErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]Rule
	}{
		{name: "unknown zone", overrides: map[string]Rule{"rural": {MaxHeightMeters: 9}}},
		{name: "occupation above 100", overrides: map[string]Rule{"industrial": {MaxOccupationPercentage: 140}}},
		{name: "negative height", overrides: map[string]Rule{"residential": {MaxHeightMeters: -1}}},
		{name: "negative coefficient", overrides: map[string]Rule{"mixed": {MaxConstructibilityCoefficient: -2}}},
		{name: "infinite height", overrides: map[string]Rule{"residential": {MaxHeightMeters: math.Inf(1)}}},
		{name: "NaN coefficient", overrides: map[string]Rule{"commercial": {MaxConstructibilityCoefficient: math.NaN()}}},
		{name: "NaN occupation", overrides: map[string]Rule{"mixed": {MaxOccupationPercentage: math.NaN()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.overrides); err == nil {
				t.Error("NewTable() expected error")
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Default().Lookup("rural"); err == nil {
		t.Error("Lookup(rural) expected error")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	table := Default()
	all := table.All()
	all[Residential] = Rule{MaxHeightMeters: 1, MaxConstructibilityCoefficient: 1, MaxOccupationPercentage: 1}

	got, _ := table.Lookup(Residential)
	if got != DefaultRules()[Residential] {
		t.Error("mutating All() result changed the table")
	}
}
