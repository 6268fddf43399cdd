package amul

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rkhanna/amulwatch/internal/metrics"
	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// fetchLimitMargin pads the result limit past the key count; the
// backend has been seen paginating short of the requested limit.
const fetchLimitMargin = 10

// FetchByAliases queries the catalog for the given aliases within an
// established session. One combined "in" query is tried first; once
// its retry budget is exhausted, each alias is fetched independently
// and partial successes are aggregated. Only when every fallback fails
// does the whole fetch fail.
func (c *Client) FetchByAliases(ctx context.Context, sess *Session, aliases []string) (map[string]ProductRecord, error) {
	keys := normalizeAliases(aliases)
	if len(keys) == 0 {
		return nil, fmt.Errorf("no aliases to fetch")
	}

	records, err := retryValue(ctx, c, func() (map[string]ProductRecord, error) {
		return c.fetchBatch(ctx, sess, keys, "fetch_combined")
	})
	if err == nil {
		return records, nil
	}

	c.log.Warn("combined fetch exhausted, falling back to per-item requests", "error", err)
	metrics.FetchPartialTotal.Inc()

	out := make(map[string]ProductRecord, len(keys))
	lastErr := err
	for _, alias := range keys {
		rec, perErr := retryValue(ctx, c, func() (map[string]ProductRecord, error) {
			return c.fetchBatch(ctx, sess, []string{alias}, "fetch_single")
		})
		if perErr != nil {
			lastErr = perErr
			c.log.Warn("per-item fetch failed", "alias", alias, "error", perErr)
			continue
		}
		for k, v := range rec {
			out[k] = v
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrFetchExhausted, lastErr)
	}
	return out, nil
}

func (c *Client) fetchBatch(ctx context.Context, sess *Session, aliases []string, stage string) (map[string]ProductRecord, error) {
	q := c.catalogQuery(sess, aliases)

	body, err := c.doRequest(ctx, sess, http.MethodGet, c.catalogPath, q, nil, stage)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []ProductRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: catalog response unparsable: %v", ErrProtocol, err)
	}

	out := make(map[string]ProductRecord, len(resp.Data))
	for _, rec := range resp.Data {
		key := domain.NormalizeAlias(rec.Alias)
		if key == "" {
			continue
		}
		out[key] = rec
	}
	return out, nil
}

// catalogQuery builds the field-selected, alias-filtered catalog
// request: one flag per attribute we diff on, an "in" filter over the
// batch, a padded limit, a cache-busting timestamp, and the substore
// when the fast region path resolved one.
func (c *Client) catalogQuery(sess *Session, aliases []string) url.Values {
	q := url.Values{}
	for _, field := range []string{"alias", "name", "available", "inventory_quantity", "price", "our_price"} {
		q.Set("fields["+field+"]", "1")
	}

	q.Set("filters[0][field]", "alias")
	q.Set("filters[0][operator]", "in")
	for i, alias := range aliases {
		q.Set(fmt.Sprintf("filters[0][value][%d]", i), alias)
	}

	q.Set("limit", strconv.Itoa(len(aliases)+fetchLimitMargin))
	q.Set("_", strconv.FormatInt(c.nowFunc().UnixMilli(), 10))

	if sess.substore != "" {
		q.Set("substore", sess.substore)
	}
	return q
}

// normalizeAliases lowercases, trims, and dedupes while preserving
// first-seen order.
func normalizeAliases(aliases []string) []string {
	seen := make(map[string]struct{}, len(aliases))
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		key := domain.NormalizeAlias(a)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
