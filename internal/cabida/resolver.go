package cabida

import (
	"math"

	"github.com/iwvelando/cabida/internal/zoning"
)

type candidate struct {
	value  *float64
	source Source
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// firstUsable walks candidates in precedence order and returns the first
// finite positive value. Nil, non-positive and NaN values fall through.
func firstUsable(candidates ...candidate) (float64, Source, bool) {
	for _, c := range candidates {
		if c.value != nil && usable(*c.value) {
			return *c.value, c.source, true
		}
	}
	return 0, "", false
}

// Resolve folds the request, the certificate and the zone rule into one
// constraint set. Height, coefficient and occupation follow override,
// certificate, zone default. Surface follows certificate, then override.
func Resolve(cert CertificateData, params RequestParameters, rule zoning.Rule) (EffectiveConstraints, error) {
	var ec EffectiveConstraints

	surface, src, ok := firstUsable(
		candidate{cert.TotalSurfaceM2, SourceCertificate},
		candidate{params.SurfaceOverride, SourceOverride},
	)
	if !ok {
		return EffectiveConstraints{}, ErrMissingSurface
	}
	ec.TotalSurfaceM2, ec.Sources.TotalSurface = surface, src

	ec.HeightLimitM, ec.Sources.Height, ok = firstUsable(
		candidate{params.MaxHeightOverride, SourceOverride},
		candidate{cert.CertifiedHeightLimit, SourceCertificate},
		candidate{&rule.MaxHeightMeters, SourceZoneDefault},
	)
	if !ok {
		return EffectiveConstraints{}, &InternalConsistencyFault{Quantity: "zone height limit"}
	}

	ec.Coefficient, ec.Sources.Coefficient, ok = firstUsable(
		candidate{params.CoefficientOverride, SourceOverride},
		candidate{cert.CertifiedCoefficient, SourceCertificate},
		candidate{&rule.MaxConstructibilityCoefficient, SourceZoneDefault},
	)
	if !ok {
		return EffectiveConstraints{}, &InternalConsistencyFault{Quantity: "zone constructibility coefficient"}
	}

	ec.OccupationPercentage, ec.Sources.Occupation, ok = firstUsable(
		candidate{params.OccupationOverride, SourceOverride},
		candidate{cert.CertifiedOccupationPercentage, SourceCertificate},
		candidate{&rule.MaxOccupationPercentage, SourceZoneDefault},
	)
	if !ok {
		return EffectiveConstraints{}, &InternalConsistencyFault{Quantity: "zone occupation percentage"}
	}

	return ec, nil
}
