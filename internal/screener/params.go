package screener

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// Unit tells Resolve whether a value is entered in percent
type Unit string

const (
	Absolute   Unit = "absolute"
	Percentage Unit = "percentage"
)

// ParamID names one SpreadParameters field
type ParamID string

const (
	ParamMinReturn                    ParamID = "minReturn"
	ParamMaxDelta                     ParamID = "maxDelta"
	ParamMinIV                        ParamID = "minIV"
	ParamMaxIV                        ParamID = "maxIV"
	ParamMinSpreadDistance            ParamID = "minSpreadDistance"
	ParamMaxSpreadDistance            ParamID = "maxSpreadDistance"
	ParamMinVolume                    ParamID = "minVolume"
	ParamMinDistanceOverBollingerBand ParamID = "minDistanceOverBollingerBand"
	ParamMinDistanceToStrike          ParamID = "minDistanceToStrike"
	ParamMinDaysToEarnings            ParamID = "minDaysToEarnings"
	ParamMaxLegBidAskSpread           ParamID = "maxLegBidAskSpread"
)

// Parameter is a catalog entry: display name, default and unit
type Parameter struct {
	ID           ParamID `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Group        string  `json:"group,omitempty" yaml:"group,omitempty"`
	DefaultValue float64 `json:"defaultValue" yaml:"default_value"`
	Unit         Unit    `json:"unit" yaml:"unit"`
}

// Catalog lists every screening parameter in display order
// ⭐ SSOT: parameter ids, defaults and units
var Catalog = []Parameter{
	{ID: ParamMinReturn, Name: "Min return", DefaultValue: 5, Unit: Percentage},
	{ID: ParamMaxDelta, Name: "Max delta", DefaultValue: 0.1, Unit: Absolute},
	{ID: ParamMinIV, Group: "IV range", Name: "Min IV", DefaultValue: 40, Unit: Percentage},
	{ID: ParamMaxIV, Group: "IV range", Name: "Max IV", DefaultValue: 120, Unit: Percentage},
	{ID: ParamMinSpreadDistance, Group: "Spread step range", Name: "Min spread step", DefaultValue: 1, Unit: Absolute},
	{ID: ParamMaxSpreadDistance, Group: "Spread step range", Name: "Max spread step", DefaultValue: 3, Unit: Absolute},
	{ID: ParamMinVolume, Name: "Min volume", DefaultValue: 5, Unit: Absolute},
	{ID: ParamMinDistanceOverBollingerBand, Name: "Min distance over Bollinger Band", DefaultValue: 0, Unit: Percentage},
	{ID: ParamMinDistanceToStrike, Name: "Min distance to strike", DefaultValue: 8, Unit: Percentage},
	{ID: ParamMinDaysToEarnings, Name: "Min days to earnings", DefaultValue: 7, Unit: Absolute},
	{ID: ParamMaxLegBidAskSpread, Name: "Max leg bid-ask spread", DefaultValue: 40, Unit: Percentage},
}

// LookupParameter finds a catalog entry by id
func LookupParameter(id ParamID) (Parameter, bool) {
	for _, p := range Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParamValue is a user-entered value plus its unit
type ParamValue struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  Unit    `json:"unit" yaml:"unit"`
}

// ParameterSet is the sparse, user-facing configuration.
// Absent ids skip their filter step.
type ParameterSet map[ParamID]ParamValue

// Set records value for id using the catalog unit
func (ps ParameterSet) Set(id ParamID, value float64) error {
	p, ok := LookupParameter(id)
	if !ok {
		return fmt.Errorf("unknown parameter %q", id)
	}
	ps[id] = ParamValue{Value: value, Unit: p.Unit}
	return nil
}

// WithDefaults returns a set holding every catalog parameter in ids,
// taking the catalog default where ps has no value
func (ps ParameterSet) WithDefaults(ids ...ParamID) ParameterSet {
	out := make(ParameterSet, len(ps)+len(ids))
	for id, v := range ps {
		out[id] = v
	}
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		if p, ok := LookupParameter(id); ok {
			out[id] = ParamValue{Value: p.DefaultValue, Unit: p.Unit}
		}
	}
	return out
}

// IDs returns the set's ids in catalog order
func (ps ParameterSet) IDs() []ParamID {
	ids := make([]ParamID, 0, len(ps))
	for id := range ps {
		ids = append(ids, id)
	}
	order := make(map[ParamID]int, len(Catalog))
	for i, p := range Catalog {
		order[p.ID] = i
	}
	sort.Slice(ids, func(i, j int) bool { return order[ids[i]] < order[ids[j]] })
	return ids
}

// Resolve converts the set into core parameters, dividing percentage
// values by 100. Unknown ids are an error.
func (ps ParameterSet) Resolve() (contracts.SpreadParameters, error) {
	var out contracts.SpreadParameters

	for id, v := range ps {
		value := v.Value
		if v.Unit == Percentage {
			value /= 100
		}

		field := resolveField(&out, id)
		if field == nil {
			return contracts.SpreadParameters{}, fmt.Errorf("unknown parameter %q", id)
		}
		*field = contracts.Float64(value)
	}

	return out, nil
}

func resolveField(p *contracts.SpreadParameters, id ParamID) **float64 {
	switch id {
	case ParamMinReturn:
		return &p.MinReturn
	case ParamMaxDelta:
		return &p.MaxDelta
	case ParamMinIV:
		return &p.MinIV
	case ParamMaxIV:
		return &p.MaxIV
	case ParamMinSpreadDistance:
		return &p.MinSpreadDistance
	case ParamMaxSpreadDistance:
		return &p.MaxSpreadDistance
	case ParamMinVolume:
		return &p.MinVolume
	case ParamMinDistanceOverBollingerBand:
		return &p.MinDistanceOverBollingerBand
	case ParamMinDistanceToStrike:
		return &p.MinDistanceToStrike
	case ParamMinDaysToEarnings:
		return &p.MinDaysToEarnings
	case ParamMaxLegBidAskSpread:
		return &p.MaxLegBidAskSpread
	default:
		return nil
	}
}

// ParseAssignments parses CLI/API "id=value" pairs, units from the catalog.
// Values are entered the way the catalog displays them ("minIV=40" means 40%).
func ParseAssignments(assignments []string) (ParameterSet, error) {
	ps := make(ParameterSet, len(assignments))
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q: expected id=value", a)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		if err := ps.Set(ParamID(strings.TrimSpace(key)), value); err != nil {
			return nil, err
		}
	}
	return ps, nil
}
