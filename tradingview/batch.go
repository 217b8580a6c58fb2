package tradingview

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the largest number of parallel reads the server
// tolerates before answering 429 Too Many Requests.
const DefaultConcurrency = 5

// ReadLatestPrices reads all requests with at most concurrency reads in
// flight (DefaultConcurrency if <= 0). Responses are in request order. The
// first error cancels the remaining reads and is returned.
func (c *Client) ReadLatestPrices(ctx context.Context, reqs []Request, concurrency int) ([]*Response, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	responses := make([]*Response, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := c.ReadLatestPrice(ctx, req.Symbol, req.Exchange, req.Options)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
