package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// DefaultCBRURL is the Bank of Russia DailyInfo web service endpoint.
const DefaultCBRURL = "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"

// KeyRateFetcher fetches the key-rate changes in [from, to].
type KeyRateFetcher interface {
	FetchKeyRates(ctx context.Context, from, to generic.TimePoint) ([]generic.KeyRate, error)
}

// CBRKeyRates calls the KeyRate method of the DailyInfo SOAP service.
type CBRKeyRates struct {
	client *http.Client
	url    string
}

// NewCBRKeyRates creates a fetcher. A nil client gets a 30 second timeout.
func NewCBRKeyRates(client *http.Client) *CBRKeyRates {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CBRKeyRates{client: client, url: DefaultCBRURL}
}

// WithURL overrides the service endpoint.
func (c *CBRKeyRates) WithURL(url string) *CBRKeyRates {
	c.url = url
	return c
}

const keyRateEnvelope = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
               xmlns:xsd="http://www.w3.org/2001/XMLSchema"
               xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <KeyRate xmlns="http://web.cbr.ru/">
      <fromDate>%s</fromDate>
      <ToDate>%s</ToDate>
    </KeyRate>
  </soap:Body>
</soap:Envelope>`

// FetchKeyRates posts the SOAP request and returns the rates ordered by date.
func (c *CBRKeyRates) FetchKeyRates(ctx context.Context, from, to generic.TimePoint) ([]generic.KeyRate, error) {
	body := fmt.Sprintf(keyRateEnvelope, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch key rates: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read key rates: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch key rates: unexpected status %s", resp.Status)
	}
	return ParseKeyRates(data)
}

type keyRateRow struct {
	DT   string `xml:"DT"`
	Rate string `xml:"Rate"`
}

// ParseKeyRates extracts the KR rows of a KeyRate response. The service
// sends one row per business day, newest first; the result keeps only the
// days the rate changed, oldest first.
func ParseKeyRates(data []byte) ([]generic.KeyRate, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var rows []generic.KeyRate
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse key rates: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "KR" {
			continue
		}

		var row keyRateRow
		if err := dec.DecodeElement(&row, &start); err != nil {
			return nil, fmt.Errorf("parse key rates: %w", err)
		}
		rate, err := parseKeyRateRow(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rate)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].EffectiveFrom.Before(rows[j].EffectiveFrom) })
	var changes []generic.KeyRate
	for _, r := range rows {
		if n := len(changes); n > 0 && changes[n-1].Rate.Equal(r.Rate) {
			continue
		}
		changes = append(changes, r)
	}
	return changes, nil
}

// parseKeyRateRow reads "2025-06-09T00:00:00+03:00" and "20.00".
func parseKeyRateRow(row keyRateRow) (generic.KeyRate, error) {
	raw := strings.TrimSpace(row.DT)
	if len(raw) < len(generic.DateLayout) {
		return generic.KeyRate{}, fmt.Errorf("parse key rates: bad date %q", row.DT)
	}
	d, err := generic.ParseDate(raw[:len(generic.DateLayout)])
	if err != nil {
		return generic.KeyRate{}, fmt.Errorf("parse key rates: bad date %q: %w", row.DT, err)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(row.Rate))
	if err != nil {
		return generic.KeyRate{}, fmt.Errorf("parse key rates: bad rate %q: %w", row.Rate, err)
	}
	return generic.KeyRate{EffectiveFrom: d, Rate: rate}, nil
}
