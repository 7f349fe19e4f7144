package oracle

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/networth/internal/domain"
)

// PriceClient fetches current prices from an upstream provider.
type PriceClient interface {
	GetPrice(ctx context.Context, symbol, currency string) (decimal.Decimal, error)
	GetPrices(ctx context.Context, symbols []string, currency string) (map[string]decimal.Decimal, error)
}

// Throttled serializes every request of a PriceClient through one Queue.
// Failures are returned as domain upstream errors.
type Throttled struct {
	client PriceClient
	queue  *Queue
}

// NewThrottled wraps client so that all its requests go through queue.
func NewThrottled(client PriceClient, queue *Queue) *Throttled {
	return &Throttled{client: client, queue: queue}
}

// GetPrice fetches one price through the queue.
func (t *Throttled) GetPrice(ctx context.Context, symbol, currency string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := t.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		price, err = t.client.GetPrice(ctx, symbol, currency)
		return err
	})
	if err != nil {
		return decimal.Zero, domain.UpstreamError(symbol, err)
	}
	return price, nil
}

// GetPrices fetches several prices with a single queued request.
func (t *Throttled) GetPrices(ctx context.Context, symbols []string, currency string) (map[string]decimal.Decimal, error) {
	var prices map[string]decimal.Decimal
	err := t.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		prices, err = t.client.GetPrices(ctx, symbols, currency)
		return err
	})
	if err != nil {
		return nil, domain.UpstreamError(strings.Join(symbols, ","), err)
	}
	return prices, nil
}
