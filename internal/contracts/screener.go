package contracts

// FilterStep is one funnel entry: the count surviving after a step
type FilterStep struct {
	Step  string `json:"step"`
	Count int    `json:"count"`
}

// ScreenerStatistics is the leg-level and spread-level funnel.
// Index 0 of each slice is always the unfiltered "All" baseline.
type ScreenerStatistics struct {
	OptionsFilterSteps []FilterStep `json:"optionsFilterSteps"`
	SpreadsFilterSteps []FilterStep `json:"spreadsFilterSteps"`
}

// ScreenerResults is the output of one screening run
type ScreenerResults struct {
	Spreads    []CallCreditSpread `json:"spreads"`
	Statistics ScreenerStatistics `json:"statistics"`
}

// SpreadParameters is the resolved screening configuration.
// Every field is optional (nil = step skipped / default used) and every
// percentage has already been converted to a fraction (40% -> 0.40).
type SpreadParameters struct {
	MinSpreadDistance            *float64 `json:"minSpreadDistance,omitempty"`
	MaxSpreadDistance            *float64 `json:"maxSpreadDistance,omitempty"`
	MinDistanceToStrike          *float64 `json:"minDistanceToStrike,omitempty"`
	MinIV                        *float64 `json:"minIV,omitempty"`
	MaxIV                        *float64 `json:"maxIV,omitempty"`
	MaxDelta                     *float64 `json:"maxDelta,omitempty"`
	MinVolume                    *float64 `json:"minVolume,omitempty"`
	MinDistanceOverBollingerBand *float64 `json:"minDistanceOverBollingerBand,omitempty"`
	MinDaysToEarnings            *float64 `json:"minDaysToEarnings,omitempty"`
	MaxLegBidAskSpread           *float64 `json:"maxLegBidAskSpread,omitempty"`
	MinReturn                    *float64 `json:"minReturn,omitempty"`
}
