package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"PredictionTradeBot/config"
	"PredictionTradeBot/internal/models"
)

// The oracle feed id for the reference asset; markets settle against this
// feed, not against the exchange spot price.
const btcUsdFeedID = "e62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43"

// OracleClient reads the settlement reference price from the oracle's HTTP
// endpoint.
type OracleClient struct {
	http   *resty.Client
	source string
}

func NewOracleClient(cfg config.OracleConfig) *OracleClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &OracleClient{http: client, source: cfg.Source}
}

type oracleFeed struct {
	Parsed []struct {
		Price struct {
			Price       json.Number `json:"price"`
			Expo        int         `json:"expo"`
			PublishTime int64       `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

// FetchOraclePrice returns the latest reference price reading.
func (c *OracleClient) FetchOraclePrice(ctx context.Context) (*models.OraclePrice, error) {
	var feed oracleFeed
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids[]", btcUsdFeedID).
		SetResult(&feed).
		Get("/v2/updates/price/latest")
	if err != nil {
		return nil, fmt.Errorf("fetch oracle price: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch oracle price: status %d", resp.StatusCode())
	}
	if len(feed.Parsed) == 0 {
		return nil, fmt.Errorf("oracle returned no price for feed %s", btcUsdFeedID)
	}

	entry := feed.Parsed[0].Price
	raw, err := entry.Price.Float64()
	if err != nil {
		return nil, fmt.Errorf("oracle price %q not numeric: %w", entry.Price, err)
	}

	return &models.OraclePrice{
		Price:     raw * math.Pow10(entry.Expo),
		UpdatedAt: time.Unix(entry.PublishTime, 0),
		Source:    c.source,
	}, nil
}
