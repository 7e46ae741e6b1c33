package yahoo

import "time"

// Quote is the subset of /v7/finance/quote fields the screener reads
type Quote struct {
	Symbol                 string   `json:"symbol"`
	QuoteType              string   `json:"quoteType"` // EQUITY, ETF, ...
	DisplayName            string   `json:"displayName"`
	ShortName              string   `json:"shortName"`
	LongName               string   `json:"longName"`
	RegularMarketPrice     *float64 `json:"regularMarketPrice"`
	EarningsTimestamp      *int64   `json:"earningsTimestamp"`
	EarningsTimestampStart *int64   `json:"earningsTimestampStart"`
	DividendDate           *int64   `json:"dividendDate"`
}

// Name picks the best display name
func (q Quote) Name() string {
	switch {
	case q.DisplayName != "":
		return q.DisplayName
	case q.ShortName != "":
		return q.ShortName
	default:
		return q.Symbol
	}
}

// IsEquity reports whether calendar events are available
func (q Quote) IsEquity() bool {
	return q.QuoteType == "EQUITY"
}

// EarningsDate falls back from the exact to the window start timestamp
func (q Quote) EarningsDate() *time.Time {
	if t := unixPtr(q.EarningsTimestamp); t != nil {
		return t
	}
	return unixPtr(q.EarningsTimestampStart)
}

// Dividend returns the dividend payment date
func (q Quote) Dividend() *time.Time {
	return unixPtr(q.DividendDate)
}

// CalendarEvents is the calendarEvents module of quoteSummary
type CalendarEvents struct {
	Earnings struct {
		EarningsDate []RawDate `json:"earningsDate"`
	} `json:"earnings"`
	ExDividendDate *RawDate `json:"exDividendDate"`
	DividendDate   *RawDate `json:"dividendDate"`
}

// NextEarnings returns the first announced earnings date
func (e CalendarEvents) NextEarnings() *time.Time {
	if len(e.Earnings.EarningsDate) == 0 {
		return nil
	}
	return e.Earnings.EarningsDate[0].Time()
}

// RawDate is Yahoo's {"raw": unix, "fmt": "..."} wrapper
type RawDate struct {
	Raw int64  `json:"raw"`
	Fmt string `json:"fmt"`
}

// Time converts a RawDate; nil receiver or zero raw gives nil
func (d *RawDate) Time() *time.Time {
	if d == nil || d.Raw == 0 {
		return nil
	}
	t := time.Unix(d.Raw, 0).UTC()
	return &t
}

// OptionQuote is one contract of /v7/finance/options
type OptionQuote struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            float64  `json:"strike"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	LastPrice         *float64 `json:"lastPrice"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	LastTradeDate     *int64   `json:"lastTradeDate"`
	InTheMoney        bool     `json:"inTheMoney"`
}

// LastTraded converts LastTradeDate
func (o OptionQuote) LastTraded() *time.Time {
	return unixPtr(o.LastTradeDate)
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []Quote   `json:"result"`
		Error  *apiError `json:"error"`
	} `json:"quoteResponse"`
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			CalendarEvents CalendarEvents `json:"calendarEvents"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type optionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Options          []struct {
				ExpirationDate int64         `json:"expirationDate"`
				Calls          []OptionQuote `json:"calls"`
			} `json:"options"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"optionChain"`
}

func unixPtr(v *int64) *time.Time {
	if v == nil || *v == 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
