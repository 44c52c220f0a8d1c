package cabida

import (
	"reflect"
	"testing"
)

func TestEvaluate(t *testing.T) {
	reg := DefaultRegulation()

	tests := []struct {
		name           string
		raw            RawFigures
		params         RequestParameters
		expectedStatus Status
		expectedReason []string
	}{
		{
			name:           "all rules pass",
			raw:            RawFigures{AllowedFloors: 3, DwellingUnitsMax: 25},
			params:         RequestParameters{RequestedFloors: 3, MinDwellingAreaM2: 40},
			expectedStatus: StatusApproved,
			expectedReason: []string{},
		},
		{
			name:           "floors exceeded",
			raw:            RawFigures{AllowedFloors: 3, DwellingUnitsMax: 25},
			params:         RequestParameters{RequestedFloors: 4, MinDwellingAreaM2: 40},
			expectedStatus: StatusRejected,
			expectedReason: []string{ReasonFloorsExceeded},
		},
		{
			name:           "dwelling below legal floor",
			raw:            RawFigures{AllowedFloors: 3, DwellingUnitsMax: 25},
			params:         RequestParameters{RequestedFloors: 2, MinDwellingAreaM2: 39.5},
			expectedStatus: StatusRejected,
			expectedReason: []string{ReasonDwellingBelowLegal},
		},
		{
			name:           "every rule violated keeps declaration order",
			raw:            RawFigures{AllowedFloors: 1, DwellingUnitsMax: 0},
			params:         RequestParameters{RequestedFloors: 2, MinDwellingAreaM2: 25},
			expectedStatus: StatusRejected,
			expectedReason: []string{ReasonFloorsExceeded, ReasonDwellingBelowLegal, ReasonNoDwellingUnits},
		},
		{
			name:           "no dwelling units",
			raw:            RawFigures{AllowedFloors: 1, DwellingUnitsMax: 0},
			params:         RequestParameters{RequestedFloors: 1, MinDwellingAreaM2: 60},
			expectedStatus: StatusRejected,
			expectedReason: []string{ReasonNoDwellingUnits},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reasons := Evaluate(tt.raw, tt.params, reg)
			if status != tt.expectedStatus {
				t.Errorf("status = %s, expected %s", status, tt.expectedStatus)
			}
			if !reflect.DeepEqual(reasons, tt.expectedReason) {
				t.Errorf("reasons = %v, expected %v", reasons, tt.expectedReason)
			}
		})
	}
}

func TestEvaluateUsesConfiguredLegalMinimum(t *testing.T) {
	raw := RawFigures{AllowedFloors: 3, DwellingUnitsMax: 10}
	params := RequestParameters{RequestedFloors: 1, MinDwellingAreaM2: 45}

	status, _ := Evaluate(raw, params, Regulation{AssumedFloorHeightM: 3, LegalMinimumDwellingAreaM2: 50})
	if status != StatusRejected {
		t.Errorf("status = %s, expected %s with a 50 m² legal minimum", status, StatusRejected)
	}
}
