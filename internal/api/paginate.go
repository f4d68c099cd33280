package api

import (
	"context"
	"sync"
)

// FetchPage retrieves one page of a paginated list endpoint: params merged
// with {limit, offset}, limit clamped to MaxPageSize.
//
// The page's records live under "data"; older server variants use
// "results" or "rows" instead, and the absence of all three (or a
// non-object body) means an empty page, never an error. A page shorter
// than the requested limit is authoritative evidence of end-of-data.
func (c *Client) FetchPage(ctx context.Context, path string, params map[string]any, limit, offset int) ([]Record, error) {
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	payload := make(map[string]any, len(params)+2)
	for k, v := range params {
		payload[k] = v
	}
	payload["limit"] = limit
	payload["offset"] = offset

	resp, err := c.PostJSON(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	obj, ok := AsObject(resp)
	if !ok {
		return nil, nil
	}
	return pageRecords(obj), nil
}

func pageRecords(obj map[string]any) []Record {
	for _, key := range []string{"data", "results", "rows"} {
		if list, ok := obj[key].([]any); ok {
			return toRecords(list)
		}
	}
	return nil
}

// FetchAll retrieves every page of a list endpoint using bounded
// concurrency. The total count is not known up front (the API does not
// reliably report it), so the fetcher probes in rounds:
//
//  1. Page at offset 0 is fetched synchronously; a short first page is the
//     whole data set and returns with one round trip.
//  2. Each round dispatches `workers` page fetches in parallel at offsets
//     next, next+limit, ..., next+(workers-1)*limit and joins all of them
//     before deciding anything.
//  3. Any failed page fails the whole call. Any short page in the round
//     ends the feed after the round; the API's offset semantics guarantee
//     no gaps before a short page.
//
// The aggregate's order across pages is unspecified; callers treat the
// result as a set keyed by record id.
func (c *Client) FetchAll(ctx context.Context, path string, params map[string]any, limit, workers int) ([]Record, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if workers < 1 {
		workers = 1
	}

	first, err := c.FetchPage(ctx, path, params, limit, 0)
	if err != nil {
		return nil, err
	}
	results := first
	if len(first) < limit {
		return results, nil
	}

	next := limit
	for {
		type page struct {
			records []Record
			err     error
		}
		pages := make([]page, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				records, err := c.FetchPage(ctx, path, params, limit, next+i*limit)
				pages[i] = page{records: records, err: err}
			}(i)
		}
		wg.Wait()

		stop := false
		for _, p := range pages {
			if p.err != nil {
				return nil, p.err
			}
			results = append(results, p.records...)
			if len(p.records) < limit {
				stop = true
			}
		}
		if stop {
			return results, nil
		}
		next += limit * workers
	}
}
