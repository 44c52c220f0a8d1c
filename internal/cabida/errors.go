package cabida

import (
	"errors"
	"fmt"
)

// ErrMissingSurface means neither the certificate nor the request supplied a
// usable parcel surface.
var ErrMissingSurface = errors.New("parcel surface is missing from both certificate and request")

// InternalConsistencyFault reports a zero denominator that resolved
// constraints should have made impossible.
type InternalConsistencyFault struct {
	Quantity string
}

func (e *InternalConsistencyFault) Error() string {
	return fmt.Sprintf("internal consistency fault: %s is zero", e.Quantity)
}

// InvalidParameterError reports a request parameter outside its domain.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}
