package etoro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	rankingsPath = "/sapi/rankings/rankings"

	// rankingsPageSize is how many investors one rankings request returns.
	rankingsPageSize = 100
)

// PopularInvestors fetches up to max popular investors for the given
// period, ordered by copier count descending. It pages through the
// rankings endpoint until max investors are collected or the listing is
// exhausted. An empty first page is an error: nothing downstream can run
// without investors.
func (c *Client) PopularInvestors(ctx context.Context, period Period, max int) ([]Investor, error) {
	if !ValidPeriod(period) {
		return nil, fmt.Errorf("etoro: unknown period %q", period)
	}
	if max <= 0 {
		return nil, fmt.Errorf("etoro: max investors must be positive, got %d", max)
	}

	investors := make([]Investor, 0, max)
	for page := 1; len(investors) < max; page++ {
		q := url.Values{}
		q.Set("period", string(period))
		q.Set("gainmin", "-100")
		q.Set("copiersmin", "1")
		q.Set("sort", "-copiers")
		q.Set("page", strconv.Itoa(page))
		q.Set("pagesize", strconv.Itoa(rankingsPageSize))

		var resp rankingsResponse
		if err := c.getJSON(ctx, rankingsPath, q, &resp); err != nil {
			return nil, fmt.Errorf("fetch rankings page %d: %w", page, err)
		}
		if page == 1 && len(resp.Items) == 0 {
			return nil, fmt.Errorf("etoro: rankings returned zero investors for period %s", period)
		}
		if len(resp.Items) == 0 {
			break // listing exhausted
		}

		for _, item := range resp.Items {
			investors = append(investors, investorFromRanking(item))
			if len(investors) == max {
				break
			}
		}
		if len(resp.Items) < rankingsPageSize {
			break
		}
	}
	return investors, nil
}

func investorFromRanking(item rankingItem) Investor {
	return Investor{
		Username:  item.UserName,
		FullName:  item.FullName,
		Gain:      item.Gain,
		RiskScore: item.RiskScore,
		Copiers:   item.Copiers,
		Trades:    item.Trades,
		WinRatio:  item.WinRatio,
		CountryID: item.CountryID,
		AvatarURL: item.AvatarURL,
	}
}

const portfolioPath = "/sapi/trade-data-real/live/public/portfolios"

// PublicPortfolio fetches the live public portfolio of one investor.
// Short (sell) positions carry their invested percentage like any other
// position; the direction does not matter for allocation math.
func (c *Client) PublicPortfolio(ctx context.Context, username string) (Portfolio, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("username", username)

	var resp portfolioResponse
	if err := c.getJSON(ctx, portfolioPath, q, &resp); err != nil {
		return EmptyPortfolio(), fmt.Errorf("fetch portfolio for %s: %w", username, err)
	}

	p := Portfolio{Positions: make([]Position, 0, len(resp.AggregatedPositions))}
	for _, ap := range resp.AggregatedPositions {
		pos := Position{
			InstrumentID: ap.InstrumentID,
			InvestedPct:  ap.Invested,
			Value:        ap.Value,
		}
		if ap.FirstOpen != "" {
			if t, err := time.Parse(time.RFC3339, ap.FirstOpen); err == nil {
				pos.OpenedAt = t
			}
		}
		p.Positions = append(p.Positions, pos)
	}
	for _, m := range resp.AggregatedMirrors {
		p.SocialTrades = append(p.SocialTrades, SocialTrade{
			ParentUsername: m.ParentUsername,
			InvestedPct:    m.Invested,
		})
	}
	return p, nil
}

const tradeStatsPath = "/sapi/userstats/stats"

// UserTradeStats fetches the trade-performance summary for one investor.
func (c *Client) UserTradeStats(ctx context.Context, username string, period Period) (TradeStats, error) {
	q := url.Values{}
	q.Set("period", string(period))

	var resp tradeStatsResponse
	if err := c.getJSON(ctx, tradeStatsPath+"/"+url.PathEscape(username)+"/trades", q, &resp); err != nil {
		return TradeStats{}, fmt.Errorf("fetch trade stats for %s: %w", username, err)
	}
	return TradeStats{Trades: resp.Trades, WinRatio: resp.WinRatio}, nil
}
