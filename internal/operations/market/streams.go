package market

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/sirupsen/logrus"
)

// Tick is one observed trade. Readers judge staleness by At; the listener
// never blocks them.
type Tick struct {
	Price float64
	At    time.Time
}

// TradeStream keeps the latest spot trade for one symbol. Writes are
// last-write-wins through an atomic pointer; a reader always sees either nil
// (nothing received yet) or a complete tick.
type TradeStream struct {
	symbol string
	log    *logrus.Logger
	latest atomic.Pointer[Tick]
}

func NewTradeStream(symbol string, log *logrus.Logger) *TradeStream {
	return &TradeStream{symbol: symbol, log: log}
}

// Latest returns the most recent tick, or nil before the first trade.
func (s *TradeStream) Latest() *Tick {
	return s.latest.Load()
}

// Run consumes the aggregated-trade websocket until the context is
// cancelled, reconnecting with a delay on any stream error.
func (s *TradeStream) Run(ctx context.Context) {
	const reconnectDelay = 5 * time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		doneC, stopC, err := binance.WsAggTradeServe(s.symbol, s.handleTrade, func(err error) {
			s.log.WithError(err).Warn("market: trade stream error")
		})
		if err != nil {
			s.log.WithError(err).Warn("market: trade stream connect failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		select {
		case <-ctx.Done():
			close(stopC)
			<-doneC
			return
		case <-doneC:
			s.log.Warn("market: trade stream closed, reconnecting")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}
}

func (s *TradeStream) handleTrade(event *binance.WsAggTradeEvent) {
	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		return
	}
	s.latest.Store(&Tick{
		Price: price,
		At:    time.UnixMilli(event.TradeTime),
	})
}
