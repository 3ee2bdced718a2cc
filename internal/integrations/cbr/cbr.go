package cbr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/config"
	"github.com/Dan9191/finance-scheduler/internal/models"
)

// CBRClient handles integration with Central Bank of Russia
type CBRClient struct {
	url          string
	baseCurrency string
	client       *http.Client
	log          *logrus.Logger
}

// NewCBRClient initializes a new CBR client
func NewCBRClient(cfg *config.Config, log *logrus.Logger) *CBRClient {
	return &CBRClient{
		url:          cfg.CBRURL,
		baseCurrency: cfg.BaseCurrency,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the daily currency quotes
func (c *CBRClient) buildSOAPRequest(onDate time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<GetCursOnDate xmlns="http://web.cbr.ru/">
					<On_date>%s</On_date>
				</GetCursOnDate>
			</soap12:Body>
		</soap12:Envelope>`, onDate.Format("2006-01-02"))
}

// sendRequest sends SOAP request to CBR
func (c *CBRClient) sendRequest(ctx context.Context, soapRequest string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/GetCursOnDate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	// Log the raw XML response for debugging
	c.log.Debugf("CBR XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse parses the XML response into exchange-rate rows. CBR
// quotes Vcurs units of the base currency per Vnom units of the foreign
// one; both directions of each pair are produced.
func (c *CBRClient) parseXMLResponse(rawBody []byte, onDate time.Time) ([]models.ExchangeRate, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %v", err)
	}

	quotes := doc.FindElements("//ValuteCursOnDate")
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no currency data found in XML")
	}

	var rates []models.ExchangeRate
	for _, quote := range quotes {
		code := elementText(quote, "VchCode")
		nomText := elementText(quote, "Vnom")
		cursText := elementText(quote, "Vcurs")
		if code == "" || nomText == "" || cursText == "" {
			continue
		}

		nom, err := decimal.NewFromString(strings.ReplaceAll(nomText, ",", "."))
		if err != nil || nom.Sign() <= 0 {
			c.log.Warnf("Skipping %s: bad nominal %q", code, nomText)
			continue
		}
		curs, err := decimal.NewFromString(strings.ReplaceAll(cursText, ",", "."))
		if err != nil || curs.Sign() <= 0 {
			c.log.Warnf("Skipping %s: bad rate %q", code, cursText)
			continue
		}

		perUnit := curs.Div(nom)
		rates = append(rates,
			models.ExchangeRate{FromCurrency: code, ToCurrency: c.baseCurrency, Rate: perUnit, RateDate: onDate},
			models.ExchangeRate{FromCurrency: c.baseCurrency, ToCurrency: code, Rate: decimal.NewFromInt(1).Div(perUnit), RateDate: onDate},
		)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("no usable currency quotes in XML")
	}
	return rates, nil
}

func elementText(parent *etree.Element, tag string) string {
	el := parent.FindElement("./" + tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// FetchDailyRates retrieves the currency quotes effective on onDate.
func (c *CBRClient) FetchDailyRates(ctx context.Context, onDate time.Time) ([]models.ExchangeRate, error) {
	soapRequest := c.buildSOAPRequest(onDate)
	body, err := c.sendRequest(ctx, soapRequest)
	if err != nil {
		return nil, err
	}

	rates, err := c.parseXMLResponse(body, onDate)
	if err != nil {
		return nil, err
	}

	c.log.Infof("Retrieved %d exchange rates for %s", len(rates), onDate.Format("2006-01-02"))
	return rates, nil
}
