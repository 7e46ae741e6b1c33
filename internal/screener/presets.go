package screener

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/spreadscreener/internal/contracts"
)

// ErrUnknownPreset: no preset has the requested name
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named, reusable parameter selection
type Preset struct {
	Name   string              `json:"name" yaml:"name"`
	Values map[ParamID]float64 `json:"values" yaml:"values"`
}

// ParameterSet converts the preset values into a ParameterSet using catalog units
func (p Preset) ParameterSet() ParameterSet {
	ps := make(ParameterSet, len(p.Values))
	for id, v := range p.Values {
		// presets are validated on load, unknown ids cannot reach here
		_ = ps.Set(id, v)
	}
	return ps
}

// PresetFile is the YAML document accepted by LoadPresets
type PresetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets are the built-in weekly presets
var DefaultPresets = []Preset{
	{
		Name: "Weekly Stock Options",
		Values: map[ParamID]float64{
			ParamMinReturn:                    3,
			ParamMaxDelta:                     0.1,
			ParamMinIV:                        40,
			ParamMaxIV:                        120,
			ParamMinSpreadDistance:            1,
			ParamMaxSpreadDistance:            5,
			ParamMinDistanceToStrike:          8,
			ParamMinDistanceOverBollingerBand: 0,
			ParamMinDaysToEarnings:            7,
			ParamMaxLegBidAskSpread:           40,
			ParamMinVolume:                    2,
		},
	},
	{
		Name: "Weekly ETF Options",
		Values: map[ParamID]float64{
			ParamMinReturn:                    3,
			ParamMaxDelta:                     0.1,
			ParamMinSpreadDistance:            1,
			ParamMaxSpreadDistance:            1.5,
			ParamMinDistanceToStrike:          1.5,
			ParamMinDistanceOverBollingerBand: -5,
			ParamMaxLegBidAskSpread:           40,
			ParamMinVolume:                    2,
		},
	},
}

// ValidationError 프리셋 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadPresets reads a YAML preset file.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates a YAML preset document
func ParsePresets(data []byte) ([]Preset, error) {
	var file PresetFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	if err := ValidatePresets(file.Presets); err != nil {
		return nil, err
	}
	return file.Presets, nil
}

// ValidatePresets checks names, parameter ids and ranges
func ValidatePresets(presets []Preset) error {
	seen := make(map[string]bool, len(presets))

	for i, p := range presets {
		field := fmt.Sprintf("presets[%d]", i)
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[strings.ToLower(name)] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate preset %q", name)}
		}
		seen[strings.ToLower(name)] = true

		if len(p.Values) == 0 {
			return ValidationError{field + ".values", "at least one parameter required"}
		}
		for id := range p.Values {
			if _, ok := LookupParameter(id); !ok {
				return ValidationError{field + ".values." + string(id), "unknown parameter"}
			}
		}

		if err := validateRange(field, p.Values, ParamMinSpreadDistance, ParamMaxSpreadDistance); err != nil {
			return err
		}
		if err := validateRange(field, p.Values, ParamMinIV, ParamMaxIV); err != nil {
			return err
		}
	}

	return nil
}

func validateRange(field string, values map[ParamID]float64, minID, maxID ParamID) error {
	lo, hasMin := values[minID]
	hi, hasMax := values[maxID]
	if hasMin && hasMax && lo > hi {
		return ValidationError{field + ".values", fmt.Sprintf("%s must be <= %s", minID, maxID)}
	}
	return nil
}

// PresetBook resolves presets by name: file overrides first, then built-ins
type PresetBook struct {
	presets []Preset
}

// NewPresetBook merges overrides over DefaultPresets; same-name overrides replace
func NewPresetBook(overrides []Preset) *PresetBook {
	merged := make([]Preset, 0, len(DefaultPresets)+len(overrides))
	replaced := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		replaced[strings.ToLower(o.Name)] = true
	}
	for _, d := range DefaultPresets {
		if !replaced[strings.ToLower(d.Name)] {
			merged = append(merged, d)
		}
	}
	merged = append(merged, overrides...)
	return &PresetBook{presets: merged}
}

// List returns every preset
func (b *PresetBook) List() []Preset {
	out := make([]Preset, len(b.presets))
	copy(out, b.presets)
	return out
}

// Get finds a preset by case-insensitive name
func (b *PresetBook) Get(name string) (Preset, bool) {
	for _, p := range b.presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Resolve builds core parameters from preset name (empty = none) with
// overrides applied on top
func (b *PresetBook) Resolve(name string, overrides ParameterSet) (contracts.SpreadParameters, error) {
	ps := ParameterSet{}
	if name != "" {
		p, ok := b.Get(name)
		if !ok {
			return contracts.SpreadParameters{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
		}
		ps = p.ParameterSet()
	}
	for id, v := range overrides {
		ps[id] = v
	}
	return ps.Resolve()
}
