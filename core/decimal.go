package core

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decimalContext rounds half away from zero, like toFixed on a decimal literal.
var decimalContext = func() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(34)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}()

// fixedString renders a decimal literal with exactly places fractional digits.
func fixedString(s string, places int32) (string, error) {
	var d apd.Decimal
	if _, _, err := d.SetString(s); err != nil {
		return "", fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return quantize(&d, places)
}

// fixedFloat renders a float with exactly places fractional digits.
func fixedFloat(f float64, places int32) (string, error) {
	var d apd.Decimal
	if _, err := d.SetFloat64(f); err != nil {
		return "", fmt.Errorf("invalid decimal %v: %w", f, err)
	}
	return quantize(&d, places)
}

func quantize(d *apd.Decimal, places int32) (string, error) {
	if d.Form != apd.Finite {
		return "", fmt.Errorf("non-finite decimal %s", d.String())
	}
	var out apd.Decimal
	if _, err := decimalContext.Quantize(&out, d, -places); err != nil {
		return "", fmt.Errorf("failed to round %s: %w", d.String(), err)
	}
	return out.Text('f'), nil
}
