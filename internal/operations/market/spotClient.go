package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"PredictionTradeBot/internal/models"
)

// SpotClient wraps the exchange spot API with a rate limiter and retry
// backoff so a burst of cycle fetches cannot trip the API limits.
type SpotClient struct {
	client      *binance.Client
	rateLimiter *rate.Limiter
	log         *logrus.Logger
}

func NewSpotClient(apiKey, secretKey string, log *logrus.Logger) *SpotClient {
	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	client := binance.NewClient(apiKey, secretKey)
	client.HTTPClient = httpClient

	return &SpotClient{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		log:         log,
	}
}

// FetchCandles returns the most recent closed-and-current bars for the
// symbol, oldest first.
func (c *SpotClient) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	var klines []*binance.Kline
	err := c.withRetry(ctx, func() error {
		var kerr error
		klines, kerr = c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return kerr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, models.Candle{
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return candles, nil
}

// FetchSpotPrice returns the current spot price for the symbol.
func (c *SpotClient) FetchSpotPrice(ctx context.Context, symbol string) (float64, error) {
	var prices []*binance.SymbolPrice
	err := c.withRetry(ctx, func() error {
		var perr error
		prices, perr = c.client.NewListPricesService().Symbol(symbol).Do(ctx)
		return perr
	})
	if err != nil {
		return 0, fmt.Errorf("fetch spot price for %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	return parseFloat(prices[0].Price), nil
}

// withRetry waits on the rate limiter and retries transient failures with
// exponential backoff.
func (c *SpotClient) withRetry(ctx context.Context, call func() error) error {
	const maxRetries = 3
	backoff := 100 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if werr := c.rateLimiter.Wait(ctx); werr != nil {
			return werr
		}

		if err = call(); err == nil {
			return nil
		}
		if attempt == maxRetries {
			return err
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
	return err
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
