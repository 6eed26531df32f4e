package domain

import "time"

// Asset is one tracked cryptocurrency. Repo is the canonical GitHub
// repository used for developer-activity tracking; it may be empty when
// no repository is mapped for the asset.
type Asset struct {
	Symbol      string
	Name        string
	CoinGeckoID string
	Repo        string
}

// TrackedAssets is the fixed basket fetched from the price source,
// ordered by market-cap rank.
var TrackedAssets = []Asset{
	{Symbol: "BTC", Name: "Bitcoin", CoinGeckoID: "bitcoin", Repo: "bitcoin/bitcoin"},
	{Symbol: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum", Repo: "ethereum/go-ethereum"},
	{Symbol: "SOL", Name: "Solana", CoinGeckoID: "solana", Repo: "solana-labs/solana"},
	{Symbol: "ADA", Name: "Cardano", CoinGeckoID: "cardano", Repo: "input-output-hk/cardano-node"},
	{Symbol: "DOT", Name: "Polkadot", CoinGeckoID: "polkadot", Repo: "paritytech/polkadot"},
	{Symbol: "XRP", Name: "XRP", CoinGeckoID: "ripple", Repo: "XRPLF/rippled"},
	{Symbol: "LTC", Name: "Litecoin", CoinGeckoID: "litecoin", Repo: "litecoin-project/litecoin"},
	{Symbol: "LINK", Name: "Chainlink", CoinGeckoID: "chainlink", Repo: "smartcontractkit/chainlink"},
	{Symbol: "MATIC", Name: "Polygon", CoinGeckoID: "matic-network", Repo: ""},
	{Symbol: "AVAX", Name: "Avalanche", CoinGeckoID: "avalanche-2", Repo: ""},
}

// SignalAssets is the subset of TrackedAssets that receives a trading
// signal each pipeline run.
var SignalAssets = TrackedAssets[:5]

// AssetBySymbol returns the tracked asset for an upper-case symbol.
func AssetBySymbol(symbol string) (Asset, bool) {
	for _, a := range TrackedAssets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Asset{}, false
}

// SupportedSymbols lists tracked symbols in basket order.
func SupportedSymbols() []string {
	out := make([]string, len(TrackedAssets))
	for i, a := range TrackedAssets {
		out[i] = a.Symbol
	}
	return out
}

// AssetQuote is one asset's market snapshot. Immutable once returned;
// a new fetch cycle supersedes it rather than mutating it.
type AssetQuote struct {
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	CurrentPrice      float64   `json:"current_price"`
	MarketCap         float64   `json:"market_cap"`
	MarketCapRank     int       `json:"market_cap_rank"`
	TotalVolume       float64   `json:"total_volume"`
	High24h           float64   `json:"high_24h"`
	Low24h            float64   `json:"low_24h"`
	PriceChange24hPct float64   `json:"price_change_percentage_24h"`
	PriceChange7dPct  float64   `json:"price_change_percentage_7d"`
	PriceChange30dPct float64   `json:"price_change_percentage_30d"`
	CirculatingSupply float64   `json:"circulating_supply"`
	TotalSupply       float64   `json:"total_supply"`
	ATH               float64   `json:"ath"`
	ATL               float64   `json:"atl"`
	LastUpdated       time.Time `json:"last_updated"`
}

type NewsArticle struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// SentimentResult is one sentiment classification over a batch of
// article excerpts, shared by all assets within a pipeline run.
type SentimentResult struct {
	Sentiment string  `json:"sentiment"` // positive, negative, neutral
	Score     float64 `json:"score"`     // [0,100]
	Summary   string  `json:"summary"`
}

type OnChainSnapshot struct {
	Symbol            string    `json:"symbol"`
	ActiveAddresses   int64     `json:"active_addresses"`
	WhaleTransactions int64     `json:"whale_transactions"`
	ExchangeInflow    float64   `json:"exchange_inflow"`
	ExchangeOutflow   float64   `json:"exchange_outflow"`
	MinerOutflow      float64   `json:"miner_outflow"`
	AvgTxValue        float64   `json:"average_transaction_value"`
	TxVolume          float64   `json:"transaction_volume"`
	Timestamp         time.Time `json:"timestamp"`
}

type DeveloperActivity struct {
	Repository   string    `json:"repository"`
	Commits7d    int       `json:"commits_7d"`
	Commits30d   int       `json:"commits_30d"`
	PRsMerged    int       `json:"pr_merged"`
	IssuesClosed int       `json:"issues_closed"`
	StarsGained  int       `json:"stars_gained"`
	LastCommit   time.Time `json:"last_commit"`
}

type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

func (a SignalAction) IsValid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// SignalMetrics is the closed record of inputs that produced a signal.
type SignalMetrics struct {
	Price              float64 `json:"price"`
	FearGreed          int     `json:"fear_greed"`
	Sentiment          string  `json:"sentiment"`
	DevActivityCommits int     `json:"dev_activity_commits"`
}

// TradingSignal is created exactly once per asset per pipeline run and
// never mutated after creation.
type TradingSignal struct {
	ID         int64         `json:"id"`
	Symbol     string        `json:"symbol"`
	Action     SignalAction  `json:"action"`
	Confidence float64       `json:"confidence"` // clamped to [0,100]
	Reasoning  string        `json:"reasoning"`
	Metrics    SignalMetrics `json:"metrics"`
	CreatedAt  time.Time     `json:"created_at"`
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition enforces the job state machine:
// pending -> running -> completed | failed.
func (s JobStatus) CanTransition(to JobStatus) bool {
	switch s {
	case JobPending:
		return to == JobRunning
	case JobRunning:
		return to == JobCompleted || to == JobFailed
	default:
		return false
	}
}

// AnalysisJob tracks one pipeline run. It is owned and mutated only by
// the orchestrator of its run and is terminal once completed or failed.
type AnalysisJob struct {
	ID                 int64      `json:"id"`
	Status             JobStatus  `json:"status"`
	CurrentStep        int        `json:"current_step"`        // 1..7
	ProgressPercentage int        `json:"progress_percentage"` // monotone 0..100 within a run
	EventJSON          string     `json:"event_data"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// JobUpdate is a partial-field update applied by the job store. Nil
// fields are left untouched.
type JobUpdate struct {
	Status             *JobStatus
	CurrentStep        *int
	ProgressPercentage *int
	EventJSON          *string
	CompletedAt        *time.Time
}
