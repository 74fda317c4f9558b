package instant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/privasearch/search/types"
)

// unit is one recognized unit name within a dimension, with its scale
// factor to the dimension's SI intermediate (or, for temperature, an
// affine transform applied specially in convertTemperature).
type unit struct {
	names      []string
	perSIUnit  decimal.Decimal // multiply a value in this unit by this to get SI
}

var lengthUnits = []unit{
	{[]string{"mm", "millimeter", "millimeters", "millimetre", "millimetres"}, decimal.NewFromFloat(0.001)},
	{[]string{"cm", "centimeter", "centimeters", "centimetre", "centimetres"}, decimal.NewFromFloat(0.01)},
	{[]string{"m", "meter", "meters", "metre", "metres"}, decimal.NewFromInt(1)},
	{[]string{"km", "kilometer", "kilometers", "kilometre", "kilometres"}, decimal.NewFromInt(1000)},
	{[]string{"in", "inch", "inches"}, decimal.NewFromFloat(0.0254)},
	{[]string{"ft", "foot", "feet"}, decimal.NewFromFloat(0.3048)},
	{[]string{"yd", "yard", "yards"}, decimal.NewFromFloat(0.9144)},
	{[]string{"mi", "mile", "miles"}, decimal.NewFromFloat(1609.344)},
}

var massUnits = []unit{
	{[]string{"mg", "milligram", "milligrams"}, decimal.NewFromFloat(0.000001)},
	{[]string{"g", "gram", "grams"}, decimal.NewFromFloat(0.001)},
	{[]string{"kg", "kilogram", "kilograms"}, decimal.NewFromInt(1)},
	{[]string{"lb", "lbs", "pound", "pounds"}, decimal.NewFromFloat(0.45359237)},
	{[]string{"oz", "ounce", "ounces"}, decimal.NewFromFloat(0.028349523125)},
	{[]string{"t", "tonne", "tonnes", "ton", "tons"}, decimal.NewFromInt(1000)},
}

var volumeUnits = []unit{
	{[]string{"ml", "milliliter", "milliliters", "millilitre", "millilitres"}, decimal.NewFromFloat(0.001)},
	{[]string{"l", "liter", "liters", "litre", "litres"}, decimal.NewFromInt(1)},
	{[]string{"gal", "gallon", "gallons"}, decimal.NewFromFloat(3.785411784)},
	{[]string{"qt", "quart", "quarts"}, decimal.NewFromFloat(0.946352946)},
	{[]string{"pt", "pint", "pints"}, decimal.NewFromFloat(0.473176473)},
	{[]string{"cup", "cups"}, decimal.NewFromFloat(0.2365882365)},
	{[]string{"floz", "fl oz", "fluid ounce", "fluid ounces"}, decimal.NewFromFloat(0.0295735295625)},
}

var durationUnits = []unit{
	{[]string{"s", "sec", "secs", "second", "seconds"}, decimal.NewFromInt(1)},
	{[]string{"min", "mins", "minute", "minutes"}, decimal.NewFromInt(60)},
	{[]string{"h", "hr", "hrs", "hour", "hours"}, decimal.NewFromInt(3600)},
	{[]string{"d", "day", "days"}, decimal.NewFromInt(86400)},
	{[]string{"wk", "week", "weeks"}, decimal.NewFromInt(604800)},
}

var temperatureUnitNames = map[string]string{
	"c": "c", "celsius": "c", "centigrade": "c",
	"f": "f", "fahrenheit": "f",
	"k": "k", "kelvin": "k",
}

var dimensions = []struct {
	name  string
	units []unit
}{
	{"length", lengthUnits},
	{"mass", massUnits},
	{"volume", volumeUnits},
	{"duration", durationUnits},
}

var convertExpr = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*([a-zA-Z ]+?)\s+(?:to|in|into)\s+([a-zA-Z ]+?)\s*$`)

// TryConvert recognizes "<amount> <unit> to <unit>" and converts through
// the dimension's SI intermediate, or through the affine Celsius/
// Fahrenheit/Kelvin transform for temperature. ok=false for anything not
// shaped like a conversion query or naming units from different
// dimensions.
func TryConvert(query string) (types.InstantAnswer, bool) {
	m := convertExpr.FindStringSubmatch(query)
	if m == nil {
		return types.InstantAnswer{}, false
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return types.InstantAnswer{}, false
	}
	from := normalizeUnitName(m[2])
	to := normalizeUnitName(m[3])

	if fromTemp, ok := temperatureUnitNames[from]; ok {
		toTemp, ok := temperatureUnitNames[to]
		if !ok {
			return types.InstantAnswer{}, false
		}
		result := convertTemperature(amount, fromTemp, toTemp)
		return types.InstantAnswer{
			Type:  "conversion",
			Query: query,
			Value: result.Round(4).String(),
			Text:  fmt.Sprintf("%s %s = %s %s", amount.String(), strings.ToUpper(fromTemp), result.Round(4).String(), strings.ToUpper(toTemp)),
		}, true
	}

	for _, dim := range dimensions {
		fromUnit, fromOK := findUnit(dim.units, from)
		toUnit, toOK := findUnit(dim.units, to)
		if !fromOK || !toOK {
			continue
		}
		si := amount.Mul(fromUnit.perSIUnit)
		result := si.Div(toUnit.perSIUnit)
		return types.InstantAnswer{
			Type:  "conversion",
			Query: query,
			Value: result.Round(6).String(),
			Text:  fmt.Sprintf("%s %s = %s %s", amount.String(), from, result.Round(6).String(), to),
		}, true
	}
	return types.InstantAnswer{}, false
}

func normalizeUnitName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func findUnit(units []unit, name string) (unit, bool) {
	for _, u := range units {
		for _, n := range u.names {
			if n == name {
				return u, true
			}
		}
	}
	return unit{}, false
}

// convertTemperature bridges Celsius/Fahrenheit/Kelvin through Celsius as
// the intermediate, since the three scales aren't related by a single
// multiplicative factor.
func convertTemperature(v decimal.Decimal, from, to string) decimal.Decimal {
	var celsius decimal.Decimal
	switch from {
	case "c":
		celsius = v
	case "f":
		celsius = v.Sub(decimal.NewFromInt(32)).Mul(decimal.NewFromInt(5)).Div(decimal.NewFromInt(9))
	case "k":
		celsius = v.Sub(decimal.NewFromFloat(273.15))
	}
	switch to {
	case "c":
		return celsius
	case "f":
		return celsius.Mul(decimal.NewFromInt(9)).Div(decimal.NewFromInt(5)).Add(decimal.NewFromInt(32))
	case "k":
		return celsius.Add(decimal.NewFromFloat(273.15))
	}
	return celsius
}
