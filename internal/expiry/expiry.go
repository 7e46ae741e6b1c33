// Package expiry computes weekly option expirations on the NYSE calendar.
package expiry

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // America/New_York without a system zoneinfo

	"github.com/scmhub/calendar"

	"github.com/wonny/spreadscreener/internal/spreads"
)

// Market close used for expirations (local wall clock)
const (
	CloseHour   = 17
	CloseMinute = 30
)

// Preset is one selectable expiration
type Preset struct {
	Label      string    `json:"label"`
	Date       time.Time `json:"date"`
	DaysToDate int       `json:"daysToDate"`
}

// Calendar wraps the NYSE business-day calendar.
// location only drives display and market-close pinning; holidays are
// always looked up on the New York civil date.
type Calendar struct {
	nyse     *calendar.Calendar
	newYork  *time.Location
	location *time.Location
}

var nyseOnce sync.Once

// xnys builds the NYSE calendar. calendar.NewYork is loaded during that
// package's init, which may run before tzdata registers.
func xnys(ny *time.Location) *calendar.Calendar {
	nyseOnce.Do(func() {
		if calendar.NewYork == nil {
			calendar.NewYork = ny
		}
	})
	return calendar.XNYS()
}

// New creates an NYSE calendar displayed in loc (nil = America/New_York)
func New(loc *time.Location) *Calendar {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		// unreachable with time/tzdata embedded
		panic(fmt.Sprintf("expiry: load America/New_York: %v", err))
	}
	if loc == nil {
		loc = ny
	}
	nyse := xnys(ny)
	return &Calendar{
		nyse:     nyse,
		newYork:  ny,
		location: loc,
	}
}

// Location is the market time zone
func (c *Calendar) Location() *time.Location {
	return c.location
}

// IsTradingDay reports whether the civil date of day (in the calendar
// location) is an NYSE business day. Outside the holiday table's years
// every weekday counts as a trading day.
func (c *Calendar) IsTradingDay(day time.Time) bool {
	y, m, d := day.In(c.location).Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, c.newYork)
	if noon.Weekday() == time.Saturday || noon.Weekday() == time.Sunday {
		return false
	}
	if start, end := c.nyse.Years(); y < start || y > end {
		return true
	}
	return c.nyse.IsBusinessDay(noon)
}

// AtMarketClose pins day to 17:30 in the calendar location
func (c *Calendar) AtMarketClose(day time.Time) time.Time {
	d := day.In(c.location)
	return time.Date(d.Year(), d.Month(), d.Day(), CloseHour, CloseMinute, 0, 0, c.location)
}

// PreviousTradingDay walks back from day (inclusive) to a business day
func (c *Calendar) PreviousTradingDay(day time.Time) time.Time {
	for i := 0; i < 10 && !c.IsTradingDay(day); i++ {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// UpcomingFridays returns the upcoming Friday and the following n-1 weekly
// Fridays. A Friday holiday moves the expiration to the prior trading day.
func (c *Calendar) UpcomingFridays(now time.Time, n int) []Preset {
	local := now.In(c.location)
	daysUntilFriday := (int(time.Friday) - int(local.Weekday()) + 7) % 7

	presets := make([]Preset, 0, n)
	for i := 0; i < n; i++ {
		offset := daysUntilFriday + 7*i
		friday := local.AddDate(0, 0, offset)
		expiration := c.AtMarketClose(c.PreviousTradingDay(friday))

		presets = append(presets, Preset{
			Label:      label(i, offset),
			Date:       expiration,
			DaysToDate: spreads.DaysToExpiration(expiration, now),
		})
	}
	return presets
}

// DefaultPresets is the upcoming Friday plus four weekly Fridays
func (c *Calendar) DefaultPresets(now time.Time) []Preset {
	return c.UpcomingFridays(now, 5)
}

// ParseDate parses YYYY-MM-DD and pins it to market close
func (c *Calendar) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration %q (want YYYY-MM-DD): %w", s, err)
	}
	return c.AtMarketClose(d), nil
}

// ParseExpiration parses YYYY-MM-DD and rolls a non-trading day back to the
// previous trading day, pinned to market close
func (c *Calendar) ParseExpiration(s string) (time.Time, error) {
	d, err := c.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return c.AtMarketClose(c.PreviousTradingDay(d)), nil
}

func label(week, offset int) string {
	switch week {
	case 0:
		return fmt.Sprintf("Upcoming friday (%dd)", offset)
	case 4:
		return fmt.Sprintf("Friday in 1 month (%dd)", offset)
	default:
		return fmt.Sprintf("Friday in %d weeks (%dd)", week, offset)
	}
}
