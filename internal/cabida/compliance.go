package cabida

// Rejection reasons, in the order the rules are checked.
const (
	ReasonFloorsExceeded     = "requested floor count exceeds allowed floors"
	ReasonDwellingBelowLegal = "minimum dwelling area below legal floor"
	ReasonNoDwellingUnits    = "no dwelling units fit under the constructibility ceiling"
)

type complianceRule struct {
	reason   string
	violated func(raw RawFigures, params RequestParameters, reg Regulation) bool
}

var complianceRules = []complianceRule{
	{
		reason: ReasonFloorsExceeded,
		violated: func(raw RawFigures, params RequestParameters, _ Regulation) bool {
			return params.RequestedFloors > raw.AllowedFloors
		},
	},
	{
		reason: ReasonDwellingBelowLegal,
		violated: func(_ RawFigures, params RequestParameters, reg Regulation) bool {
			return params.MinDwellingAreaM2 < reg.LegalMinimumDwellingAreaM2
		},
	},
	{
		reason: ReasonNoDwellingUnits,
		violated: func(raw RawFigures, _ RequestParameters, _ Regulation) bool {
			return raw.DwellingUnitsMax < 1
		},
	},
}

// Evaluate checks every rule and returns the verdict with all violated
// reasons in rule order.
func Evaluate(raw RawFigures, params RequestParameters, reg Regulation) (Status, []string) {
	reasons := []string{}
	for _, rule := range complianceRules {
		if rule.violated(raw, params, reg) {
			reasons = append(reasons, rule.reason)
		}
	}
	if len(reasons) == 0 {
		return StatusApproved, reasons
	}
	return StatusRejected, reasons
}
