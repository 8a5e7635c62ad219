/*
Package source fetches reference data from the network and feeds the cache.

PURPOSE:
  The engine only ever reads a loaded production calendar and key-rate
  history. This package is where that data comes from: the public
  xmlcalendar.ru production calendars and the Bank of Russia DailyInfo
  web service. The Loader decides what is missing for a calculation,
  fetches it concurrently, stores it, and hands back query objects.

KEY TYPES:
  - XMLCalendar: CalendarFetcher over xmlcalendar.ru JSON
  - CBRKeyRates: KeyRateFetcher over the DailyInfo SOAP KeyRate method
  - Loader:      cache-first resolution of what a calculation needs

USAGE:
  loader := source.NewLoader(db, source.NewXMLCalendar(nil), source.NewCBRKeyRates(nil), logger)
  cal, rates, err := loader.Load(ctx, input)
  res, err := payroll.Calculate(input, cal, rates)

SEE ALSO:
  - generic/store.go: ReferenceStore
  - generic/store/memory.go: Calendar and KeyRates query objects
*/
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/warp/wage-arrears/generic"
)

// DefaultCalendarURL is the xmlcalendar.ru URL pattern; %d is the year.
const DefaultCalendarURL = "https://xmlcalendar.ru/data/ru/%d/calendar.json"

// CalendarFetcher fetches one year of a production calendar.
type CalendarFetcher interface {
	FetchYear(ctx context.Context, year int) (generic.CalendarYear, error)
}

// XMLCalendar fetches production calendars published by xmlcalendar.ru.
type XMLCalendar struct {
	client *http.Client
	url    string
}

// NewXMLCalendar creates a fetcher. A nil client gets a 30 second timeout.
func NewXMLCalendar(client *http.Client) *XMLCalendar {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &XMLCalendar{client: client, url: DefaultCalendarURL}
}

// WithURL overrides the URL pattern. It must contain one %d for the year.
func (x *XMLCalendar) WithURL(pattern string) *XMLCalendar {
	x.url = pattern
	return x
}

type calendarJSON struct {
	Year   int `json:"year"`
	Months []struct {
		Month int    `json:"month"`
		Days  string `json:"days"`
	} `json:"months"`
}

// FetchYear downloads and parses a year. The published list holds every
// day off, weekends included; a day marked "*" is a shortened working day
// and stays working, "+" marks a holiday moved onto that day.
func (x *XMLCalendar) FetchYear(ctx context.Context, year int) (generic.CalendarYear, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(x.url, year), nil)
	if err != nil {
		return generic.CalendarYear{}, err
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return generic.CalendarYear{}, fmt.Errorf("fetch calendar %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return generic.CalendarYear{}, fmt.Errorf("fetch calendar %d: unexpected status %s", year, resp.Status)
	}

	var doc calendarJSON
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return generic.CalendarYear{}, fmt.Errorf("decode calendar %d: %w", year, err)
	}
	return parseCalendar(year, doc)
}

// parseCalendar converts the published months into a CalendarYear.
func parseCalendar(year int, doc calendarJSON) (generic.CalendarYear, error) {
	if doc.Year != 0 && doc.Year != year {
		return generic.CalendarYear{}, fmt.Errorf("calendar for %d returned year %d", year, doc.Year)
	}
	if len(doc.Months) == 0 {
		return generic.CalendarYear{}, fmt.Errorf("calendar for %d has no months", year)
	}

	out := generic.CalendarYear{Year: year}
	for _, m := range doc.Months {
		if m.Month < 1 || m.Month > 12 {
			return generic.CalendarYear{}, fmt.Errorf("calendar %d: bad month %d", year, m.Month)
		}
		month := time.Month(m.Month)
		for _, raw := range strings.Split(m.Days, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" || strings.Contains(raw, "*") {
				continue
			}
			d, err := strconv.Atoi(strings.TrimRight(raw, "+"))
			if err != nil || d < 1 || d > generic.DaysIn(year, month) {
				return generic.CalendarYear{}, fmt.Errorf("calendar %d-%02d: bad day %q", year, m.Month, raw)
			}
			out.NonWorkingDays = append(out.NonWorkingDays, generic.NewTimePoint(year, month, d))
		}
	}
	return out, nil
}
