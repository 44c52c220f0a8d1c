package cabida

import (
	"github.com/iwvelando/cabida/pkg/constants"
	"github.com/iwvelando/cabida/pkg/mathutil"
)

// ComputeCapacity derives the raw capacity figures from resolved constraints.
//
// The floor count is the smaller of two caps: how many full footprints fit
// under the constructibility ceiling, and how many assumed-height floors fit
// under the height limit. It never drops below one while there is a
// footprint. A zero denominator returns an *InternalConsistencyFault; inputs
// whose figures overflow return an *InvalidParameterError.
func ComputeCapacity(c EffectiveConstraints, requestedFloors int, minDwellingAreaM2 float64, reg Regulation) (RawFigures, error) {
	var raw RawFigures

	raw.MaxOccupationSurfaceM2 = mathutil.ApplyPercentage(c.TotalSurfaceM2, c.OccupationPercentage)
	raw.MaxBuildingSurfaceM2 = c.TotalSurfaceM2 * c.Coefficient
	if !mathutil.Finite(raw.MaxOccupationSurfaceM2) || !mathutil.Finite(raw.MaxBuildingSurfaceM2) {
		return RawFigures{}, &InvalidParameterError{
			Field:  "totalSurfaceM2",
			Reason: "surface and constraints overflow the building surface",
		}
	}

	surfaceFloors, err := floorRatio(raw.MaxBuildingSurfaceM2, raw.MaxOccupationSurfaceM2, "max occupation surface", "coefficientOverride")
	if err != nil {
		return RawFigures{}, err
	}
	if surfaceFloors < 1 {
		surfaceFloors = 1
	}
	raw.SurfaceFloors = surfaceFloors

	heightFloors, err := floorRatio(c.HeightLimitM, reg.AssumedFloorHeightM, "assumed floor height", "maxHeightOverride")
	if err != nil {
		return RawFigures{}, err
	}
	raw.HeightFloors = heightFloors

	raw.AllowedFloors = min(surfaceFloors, heightFloors)
	if raw.AllowedFloors < 1 {
		raw.AllowedFloors = 1
	}

	units, err := floorRatio(raw.MaxBuildingSurfaceM2, minDwellingAreaM2, "minimum dwelling area", "totalSurfaceM2")
	if err != nil {
		return RawFigures{}, err
	}
	raw.DwellingUnitsMax = max(units, 0)

	used := float64(min(requestedFloors, raw.AllowedFloors)) * raw.MaxOccupationSurfaceM2 * constants.PercentageMultiplier
	utilization, ok := mathutil.Divide(used, raw.MaxBuildingSurfaceM2)
	if !ok {
		return RawFigures{}, &InternalConsistencyFault{Quantity: "max building surface"}
	}
	raw.ConstructibilityUtilizationPercent = mathutil.Clamp(utilization, 0, constants.PercentageMultiplier)

	return raw, nil
}

// floorRatio floors num/den. A zero denominator is a fault naming den; a
// quotient past the int range is blamed on field.
func floorRatio(num, den float64, denominator, field string) (int, error) {
	if den == 0 {
		return 0, &InternalConsistencyFault{Quantity: denominator}
	}
	n, ok := mathutil.FloorRatio(num, den)
	if !ok {
		return 0, &InvalidParameterError{Field: field, Reason: "derived floor or unit count is out of range"}
	}
	return n, nil
}
