package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// Client talks to the prediction-market venue: market metadata from the
// gamma API, pricing and orders from the CLOB API. All loosely-typed venue
// payloads are normalized here; callers only ever see the strict models.
type Client struct {
	gamma *resty.Client
	clob  *resty.Client
	cfg   config.VenueConfig
	log   *logrus.Logger
}

func NewClient(cfg config.VenueConfig, log *logrus.Logger) *Client {
	gamma := resty.New().
		SetBaseURL(cfg.GammaURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	clob := resty.New().
		SetBaseURL(cfg.ClobURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)

	return &Client{gamma: gamma, clob: clob, cfg: cfg, log: log}
}

// flexStrings accepts either a JSON array of strings or a string containing
// an encoded JSON array; the gamma API serves both shapes.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*f = direct
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("outcome list is neither array nor string: %s", data)
	}
	var nested []string
	if err := json.Unmarshal([]byte(encoded), &nested); err != nil {
		return fmt.Errorf("outcome list string is not a JSON array: %w", err)
	}
	*f = nested
	return nil
}

type gammaMarket struct {
	Slug         string      `json:"slug"`
	Question     string      `json:"question"`
	Outcomes     flexStrings `json:"outcomes"`
	ClobTokenIDs flexStrings `json:"clobTokenIds"`
	EndDate      time.Time   `json:"endDate"`
	Liquidity    json.Number `json:"liquidity"`
	Active       bool        `json:"active"`
	Closed       bool        `json:"closed"`
}

// ResolveActiveMarket finds the currently live market under the configured
// slug prefix. Returns (nil, nil) when no market is live right now.
func (c *Client) ResolveActiveMarket(ctx context.Context) (*models.MarketDescriptor, error) {
	var markets []gammaMarket
	resp, err := c.gamma.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"slug_contains": c.cfg.SlugPrefix,
			"active":        "true",
			"closed":        "false",
			"order":         "endDate",
			"ascending":     "true",
			"limit":         "5",
		}).
		SetResult(&markets).
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("resolve active market: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolve active market: status %d", resp.StatusCode())
	}

	now := time.Now()
	for i := range markets {
		m := &markets[i]
		if m.Closed || !m.EndDate.After(now) {
			continue
		}
		desc, err := normalizeMarket(m)
		if err != nil {
			c.log.WithError(err).WithField("slug", m.Slug).Warn("venue: skipping malformed market")
			continue
		}
		return desc, nil
	}
	return nil, nil
}

// normalizeMarket enforces the strict two-outcome shape. The UP outcome is
// identified by label, defaulting to positional order when labels are
// unrecognizable.
func normalizeMarket(m *gammaMarket) (*models.MarketDescriptor, error) {
	if len(m.Outcomes) != 2 || len(m.ClobTokenIDs) != 2 {
		return nil, fmt.Errorf("expected 2 outcomes and 2 token ids, got %d/%d",
			len(m.Outcomes), len(m.ClobTokenIDs))
	}

	upIdx, downIdx := 0, 1
	if isDownLabel(m.Outcomes[0]) || isUpLabel(m.Outcomes[1]) {
		upIdx, downIdx = 1, 0
	}

	liquidity, _ := m.Liquidity.Float64()
	return &models.MarketDescriptor{
		Slug:           m.Slug,
		Question:       m.Question,
		OutcomeUp:      m.Outcomes[upIdx],
		OutcomeDown:    m.Outcomes[downIdx],
		UpTokenID:      m.ClobTokenIDs[upIdx],
		DownTokenID:    m.ClobTokenIDs[downIdx],
		SettlementTime: m.EndDate,
		Liquidity:      liquidity,
	}, nil
}

func isUpLabel(s string) bool {
	switch strings.ToLower(s) {
	case "up", "yes", "above":
		return true
	}
	return false
}

func isDownLabel(s string) bool {
	switch strings.ToLower(s) {
	case "down", "no", "below":
		return true
	}
	return false
}

type clobPrice struct {
	Price string `json:"price"`
}

// FetchBuyPrice returns the current buy-side quote for one outcome token, or
// nil when the venue has no quote.
func (c *Client) FetchBuyPrice(ctx context.Context, tokenID string) (*float64, error) {
	var out clobPrice
	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetQueryParam("side", "buy").
		SetResult(&out).
		Get("/price")
	if err != nil {
		return nil, fmt.Errorf("fetch buy price: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch buy price: status %d", resp.StatusCode())
	}

	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil || price <= 0 {
		return nil, nil
	}
	return &price, nil
}

type clobLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type clobBook struct {
	Bids []clobLevel `json:"bids"`
	Asks []clobLevel `json:"asks"`
}

// FetchOrderBook summarizes one token's book to best bid/ask, spread, and
// total resting size.
func (c *Client) FetchOrderBook(ctx context.Context, tokenID string) (*models.OrderBookSummary, error) {
	var book clobBook
	resp, err := c.clob.R().
		SetContext(ctx).
		SetQueryParam("token_id", tokenID).
		SetResult(&book).
		Get("/book")
	if err != nil {
		return nil, fmt.Errorf("fetch order book: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch order book: status %d", resp.StatusCode())
	}

	summary := &models.OrderBookSummary{}
	for _, lvl := range book.Bids {
		price := parseLevel(lvl.Price)
		summary.Liquidity += parseLevel(lvl.Size) * price
		if price > summary.BestBid {
			summary.BestBid = price
		}
	}
	for i, lvl := range book.Asks {
		price := parseLevel(lvl.Price)
		summary.Liquidity += parseLevel(lvl.Size) * price
		if i == 0 || price < summary.BestAsk {
			if price > 0 {
				summary.BestAsk = price
			}
		}
	}
	if summary.BestBid > 0 && summary.BestAsk > 0 {
		summary.Spread = summary.BestAsk - summary.BestBid
	}
	return summary, nil
}

type clobOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderID"`
	ErrMsg  string `json:"errorMsg"`
}

// SubmitBuyOrder places a limit buy for the outcome token.
func (c *Client) SubmitBuyOrder(ctx context.Context, tokenID string, price, size float64) (*models.OrderResult, error) {
	var out clobOrderResponse
	resp, err := c.clob.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"tokenID": tokenID,
			"side":    "BUY",
			"price":   price,
			"size":    size,
			"type":    "GTC",
		}).
		SetResult(&out).
		Post("/order")
	if err != nil {
		return nil, fmt.Errorf("submit buy order: %w", err)
	}
	if resp.IsError() {
		return &models.OrderResult{Success: false, Error: fmt.Sprintf("status %d", resp.StatusCode())}, nil
	}
	return &models.OrderResult{Success: out.Success, OrderID: out.OrderID, Error: out.ErrMsg}, nil
}

// CancelAllOrders cancels every resting order for this account.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	resp, err := c.clob.R().SetContext(ctx).Delete("/cancel-all")
	if err != nil {
		return fmt.Errorf("cancel all orders: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("cancel all orders: status %d", resp.StatusCode())
	}
	return nil
}

type clobOpenOrder struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	Price        string `json:"price"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
}

// ListOpenOrders returns this account's resting orders.
func (c *Client) ListOpenOrders(ctx context.Context) ([]models.OpenOrder, error) {
	var raw []clobOpenOrder
	resp, err := c.clob.R().
		SetContext(ctx).
		SetResult(&raw).
		Get("/data/orders")
	if err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list open orders: status %d", resp.StatusCode())
	}

	orders := make([]models.OpenOrder, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, models.OpenOrder{
			OrderID:  o.ID,
			TokenID:  o.AssetID,
			Side:     o.Side,
			Price:    parseLevel(o.Price),
			Size:     parseLevel(o.OriginalSize),
			FilledAt: parseLevel(o.SizeMatched),
		})
	}
	return orders, nil
}

func parseLevel(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
