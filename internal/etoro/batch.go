package etoro

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"
)

const (
	instrumentsPath = "/sapi/instrumentsmetadata/V1.1/instruments"
	ratesPath       = "/sapi/candles/closingprices.json"
	usersPath       = "/api/logininfo/v1.1/users"
)

// Instruments resolves display metadata for the given instrument ids.
// Ids are deduplicated and requested in fixed-size batches; a failed
// batch is logged and skipped, so the returned map may be partial.
// Unresolved ids are simply absent.
func (c *Client) Instruments(ctx context.Context, ids []int64) map[int64]InstrumentMeta {
	out := make(map[int64]InstrumentMeta, len(ids))
	for _, chunk := range chunkIDs(dedupeIDs(ids), c.batchSize) {
		q := url.Values{}
		q.Set("instrumentIds", joinIDs(chunk))

		var resp instrumentsResponse
		if err := c.getJSON(ctx, instrumentsPath, q, &resp); err != nil {
			log.Printf("etoro: instrument metadata batch of %d failed: %v", len(chunk), err)
			c.sleep(c.batchDelay)
			continue
		}
		for _, d := range resp.InstrumentDisplayDatas {
			out[d.InstrumentID] = InstrumentMeta{
				ID:         d.InstrumentID,
				Name:       d.DisplayName,
				Symbol:     d.SymbolFull,
				ImageURL:   bestImage(d.Images),
				ExchangeID: d.ExchangeID,
				TypeID:     d.InstrumentTypeID,
			}
		}
		c.sleep(c.batchDelay)
	}
	return out
}

// Rates resolves short-horizon return figures for the given instrument
// ids. Same partial-result semantics as Instruments.
func (c *Client) Rates(ctx context.Context, ids []int64) map[int64]InstrumentRate {
	out := make(map[int64]InstrumentRate, len(ids))
	for _, chunk := range chunkIDs(dedupeIDs(ids), c.batchSize) {
		q := url.Values{}
		q.Set("instrumentIds", joinIDs(chunk))

		var resp ratesResponse
		if err := c.getJSON(ctx, ratesPath, q, &resp); err != nil {
			log.Printf("etoro: closing rates batch of %d failed: %v", len(chunk), err)
			c.sleep(c.batchDelay)
			continue
		}
		for _, r := range resp.Rates {
			out[r.InstrumentID] = InstrumentRate{
				ID:          r.InstrumentID,
				PriorDayPct: r.PriorDayChange,
				WeekPct:     r.WeekToDate,
				MonthPct:    r.MonthToDate,
			}
		}
		c.sleep(c.batchDelay)
	}
	return out
}

// Users resolves country and avatar info for the given usernames.
// Same partial-result semantics as Instruments.
func (c *Client) Users(ctx context.Context, usernames []string) map[string]UserDetail {
	out := make(map[string]UserDetail, len(usernames))
	for _, chunk := range chunkStrings(dedupeStrings(usernames), c.batchSize) {
		q := url.Values{}
		q.Set("usernames", strings.Join(chunk, ","))

		var resp usersResponse
		if err := c.getJSON(ctx, usersPath, q, &resp); err != nil {
			log.Printf("etoro: user info batch of %d failed: %v", len(chunk), err)
			c.sleep(c.batchDelay)
			continue
		}
		for _, u := range resp.Users {
			detail := UserDetail{Username: u.UserName, CountryID: u.CountryID}
			for _, a := range u.Avatars {
				detail.Avatars = append(detail.Avatars, Avatar{URL: a.URL, Width: a.Width, Height: a.Height})
			}
			out[u.UserName] = detail
		}
		c.sleep(c.batchDelay)
	}
	return out
}

// bestImage picks the widest rendition, which is what reports embed.
func bestImage(images []instrumentImage) string {
	best := ""
	bestWidth := -1
	for _, img := range images {
		if img.Width > bestWidth {
			best = img.URI
			bestWidth = img.Width
		}
	}
	return best
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func dedupeStrings(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func chunkIDs(ids []int64, size int) [][]int64 {
	var chunks [][]int64
	for len(ids) > 0 {
		n := size
		if n > len(ids) {
			n = len(ids)
		}
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

func chunkStrings(vals []string, size int) [][]string {
	var chunks [][]string
	for len(vals) > 0 {
		n := size
		if n > len(vals) {
			n = len(vals)
		}
		chunks = append(chunks, vals[:n])
		vals = vals[n:]
	}
	return chunks
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
