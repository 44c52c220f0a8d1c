package cabida

import (
	"fmt"

	"github.com/iwvelando/cabida/internal/zoning"
	"github.com/iwvelando/cabida/pkg/constants"
)

// Recommend derives advisory messages from the raw figures. It does not look
// at the verdict, so approved requests can still receive cautions and
// rejected ones can still receive informational notes.
func Recommend(raw RawFigures, params RequestParameters, c EffectiveConstraints, rule zoning.Rule, reg Regulation) []Recommendation {
	var recs []Recommendation
	add := func(cat Category, format string, args ...interface{}) {
		recs = append(recs, Recommendation{Category: cat, Message: fmt.Sprintf(format, args...)})
	}

	if params.RequestedFloors > raw.AllowedFloors {
		if raw.HeightFloors < raw.SurfaceFloors {
			add(CategoryCaution, "Reduce floors to %d to comply: the %.1f m height limit fits %d floors of %.1f m (%d requested).",
				raw.AllowedFloors, c.HeightLimitM, raw.HeightFloors, reg.AssumedFloorHeightM, params.RequestedFloors)
		} else {
			add(CategoryCaution, "Reduce floors to %d to comply: the %.1f m² constructibility ceiling fits %d floors of %.1f m² footprint (%d requested).",
				raw.AllowedFloors, raw.MaxBuildingSurfaceM2, raw.SurfaceFloors, raw.MaxOccupationSurfaceM2, params.RequestedFloors)
		}
	}

	if params.MinDwellingAreaM2 < reg.LegalMinimumDwellingAreaM2 {
		add(CategoryDwelling, "Raise the minimum dwelling area to at least %.0f m² (%.0f m² requested).",
			reg.LegalMinimumDwellingAreaM2, params.MinDwellingAreaM2)
	}

	if raw.DwellingUnitsMax < 1 {
		add(CategoryCaution, "No %.0f m² dwelling fits under the %.1f m² constructibility ceiling; review the coefficient or the dwelling size.",
			params.MinDwellingAreaM2, raw.MaxBuildingSurfaceM2)
	}

	zone := params.ZoneType
	if c.Coefficient > rule.MaxConstructibilityCoefficient {
		add(CategoryCaution, "Constructibility coefficient %.2f (%s) exceeds the %s zone maximum of %.2f; confirm it against the local zoning plan.",
			c.Coefficient, c.Sources.Coefficient, zone, rule.MaxConstructibilityCoefficient)
	}
	if c.OccupationPercentage > rule.MaxOccupationPercentage {
		add(CategoryCaution, "Occupation percentage %.1f%% (%s) exceeds the %s zone maximum of %.1f%%; confirm it against the local zoning plan.",
			c.OccupationPercentage, c.Sources.Occupation, zone, rule.MaxOccupationPercentage)
	}
	if c.HeightLimitM > rule.MaxHeightMeters {
		add(CategoryCaution, "Height limit %.1f m (%s) exceeds the %s zone maximum of %.1f m; confirm it against the local zoning plan.",
			c.HeightLimitM, c.Sources.Height, zone, rule.MaxHeightMeters)
	}

	if params.RequestedFloors < raw.AllowedFloors && raw.ConstructibilityUtilizationPercent < constants.LowUtilizationPercent {
		add(CategoryInformational, "Only %.1f%% of the constructibility ceiling is used; up to %d floors are allowed.",
			raw.ConstructibilityUtilizationPercent, raw.AllowedFloors)
	}

	if raw.DwellingUnitsMax > 1 && params.MinDwellingAreaM2 > reg.LegalMinimumDwellingAreaM2 {
		add(CategoryDwelling, "Up to %d dwelling units of %.0f m² fit; consider subdividing.",
			raw.DwellingUnitsMax, params.MinDwellingAreaM2)
	}

	if params.RequestedFloors <= raw.AllowedFloors {
		add(CategoryApproval, "The %d requested floors fit within the %d allowed floors.",
			params.RequestedFloors, raw.AllowedFloors)
	}

	add(CategoryInformational, "Maximum buildable surface is %.1f m² over a %.1f m² footprint, for up to %d dwelling units.",
		raw.MaxBuildingSurfaceM2, raw.MaxOccupationSurfaceM2, raw.DwellingUnitsMax)

	return recs
}
