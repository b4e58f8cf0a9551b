package etoro

import "time"

// Period selects the performance window for the rankings listing.
type Period string

const (
	PeriodCurrMonth    Period = "CurrMonth"
	PeriodCurrQuarter  Period = "CurrQuarter"
	PeriodCurrYear     Period = "CurrYear"
	PeriodLastYear     Period = "LastYear"
	PeriodLastTwoYears Period = "LastTwoYears"
)

// ValidPeriod reports whether p is one of the supported ranking periods.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodCurrMonth, PeriodCurrQuarter, PeriodCurrYear, PeriodLastYear, PeriodLastTwoYears:
		return true
	}
	return false
}

// Investor is one popular investor from the rankings listing.
// Trades and WinRatio may later be overwritten by per-user trade stats.
type Investor struct {
	Username  string  `json:"username"`
	FullName  string  `json:"fullName"`
	Gain      float64 `json:"gain"`
	RiskScore int     `json:"riskScore"`
	Copiers   int     `json:"copiers"`
	Trades    int     `json:"trades"`
	WinRatio  float64 `json:"winRatio"`
	CountryID int     `json:"countryId,omitempty"`
	AvatarURL string  `json:"avatarUrl,omitempty"`
}

// Position is one open position inside a public portfolio.
type Position struct {
	InstrumentID int64     `json:"instrumentId"`
	InvestedPct  float64   `json:"investedPct"` // percent of equity
	Value        float64   `json:"value"`
	OpenedAt     time.Time `json:"openedAt,omitempty"`
}

// SocialTrade is a copy-relationship inside a portfolio: funds mirrored
// into another investor's trades.
type SocialTrade struct {
	ParentUsername string  `json:"parentUsername"`
	InvestedPct    float64 `json:"investedPct"`
}

// Portfolio holds the open positions of one investor. Positions is never
// nil; a failed fetch yields an empty portfolio so that downstream
// aggregation needs no nil branches.
type Portfolio struct {
	Positions    []Position    `json:"positions"`
	SocialTrades []SocialTrade `json:"socialTrades,omitempty"`
}

// EmptyPortfolio returns a portfolio with zero positions (100% cash).
func EmptyPortfolio() Portfolio {
	return Portfolio{Positions: []Position{}}
}

// TradeStats is the per-user trade performance summary.
type TradeStats struct {
	Trades   int     `json:"trades"`
	WinRatio float64 `json:"winRatio"`
}

// InstrumentMeta is display metadata for one instrument.
type InstrumentMeta struct {
	ID         int64  `json:"instrumentId"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	ImageURL   string `json:"imageUrl,omitempty"`
	ExchangeID int    `json:"exchangeId,omitempty"`
	TypeID     int    `json:"typeId,omitempty"`
}

// InstrumentRate holds short-horizon return figures for one instrument.
type InstrumentRate struct {
	ID          int64   `json:"instrumentId"`
	PriorDayPct float64 `json:"priorDayPct"`
	WeekPct     float64 `json:"weekPct"`
	MonthPct    float64 `json:"monthPct"`
}

// UserDetail is display metadata for one username.
type UserDetail struct {
	Username  string   `json:"username"`
	CountryID int      `json:"countryId,omitempty"`
	Avatars   []Avatar `json:"avatars,omitempty"`
}

// Avatar is one avatar rendition of a user.
type Avatar struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// --- Wire types (API response shapes) ---

type rankingsResponse struct {
	Status    string        `json:"Status"`
	TotalRows int           `json:"TotalRows"`
	Items     []rankingItem `json:"Items"`
}

type rankingItem struct {
	UserName         string  `json:"UserName"`
	FullName         string  `json:"FullName"`
	Gain             float64 `json:"Gain"`
	RiskScore        int     `json:"RiskScore"`
	Copiers          int     `json:"Copiers"`
	Trades           int     `json:"Trades"`
	WinRatio         float64 `json:"WinRatio"`
	CountryID        int     `json:"CountryId"`
	HasAvatar        bool    `json:"HasAvatar"`
	AvatarURL        string  `json:"Avatar"`
	DailyGain        float64 `json:"DailyGain"`
	WeeklyDrawdown   float64 `json:"WeeklyDD"`
	PeakToValley     float64 `json:"PeakToValley"`
	ActiveWeeksPct   float64 `json:"ActiveWeeksPct"`
	ProfitableWeeks  float64 `json:"ProfitableWeeksPct"`
	VirtualCopiers   int     `json:"VirtualCopiers"`
	CopiedTradesPct  float64 `json:"CopyTradesPct"`
	CopyInvestmentPct float64 `json:"CopyInvestmentPct"`
}

type portfolioResponse struct {
	CreditByRealizedEquity float64            `json:"CreditByRealizedEquity"`
	AggregatedPositions    []aggregatedPosition `json:"AggregatedPositions"`
	AggregatedMirrors      []aggregatedMirror   `json:"AggregatedMirrors"`
}

type aggregatedPosition struct {
	InstrumentID int64   `json:"InstrumentID"`
	Direction    string  `json:"Direction"`
	Invested     float64 `json:"Invested"` // percent of equity
	NetProfit    float64 `json:"NetProfit"`
	Value        float64 `json:"Value"`
	FirstOpen    string  `json:"FirstOpenDateTime"`
}

type aggregatedMirror struct {
	MirrorID       int64   `json:"MirrorID"`
	ParentUsername string  `json:"ParentUsername"`
	Invested       float64 `json:"Invested"`
}

type tradeStatsResponse struct {
	Trades       int     `json:"Trades"`
	WinRatio     float64 `json:"WinRatio"`
	TotalClosed  int     `json:"TotalClosedTrades"`
	AvgHoldDays  float64 `json:"AvgHoldingTimeInDays"`
}

type instrumentsResponse struct {
	InstrumentDisplayDatas []instrumentDisplayData `json:"InstrumentDisplayDatas"`
}

type instrumentDisplayData struct {
	InstrumentID     int64            `json:"InstrumentID"`
	DisplayName      string           `json:"InstrumentDisplayName"`
	SymbolFull       string           `json:"SymbolFull"`
	ExchangeID       int              `json:"ExchangeID"`
	InstrumentTypeID int              `json:"InstrumentTypeID"`
	Images           []instrumentImage `json:"Images"`
}

type instrumentImage struct {
	Width  int    `json:"Width"`
	URI    string `json:"Uri"`
}

type ratesResponse struct {
	Rates []closingRate `json:"Rates"`
}

type closingRate struct {
	InstrumentID   int64   `json:"InstrumentID"`
	PriorDayChange float64 `json:"PriorDayChangePct"`
	WeekToDate     float64 `json:"WeekToDateChangePct"`
	MonthToDate    float64 `json:"MonthToDateChangePct"`
}

type usersResponse struct {
	Users []userInfo `json:"Users"`
}

type userInfo struct {
	UserName  string       `json:"UserName"`
	CountryID int          `json:"CountryId"`
	Avatars   []userAvatar `json:"Avatars"`
}

type userAvatar struct {
	URL    string `json:"Url"`
	Width  int    `json:"Width"`
	Height int    `json:"Height"`
}
