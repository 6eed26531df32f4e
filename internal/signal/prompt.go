package signal

import (
	"fmt"
	"strings"
)

// BuildPrompt renders one asset's collected inputs into the judgment
// prompt. The model must answer with a single JSON object; anything
// else is handled by the fallback path.
func BuildPrompt(in Inputs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze %s (%s) and recommend a trading action.\n\n", in.Asset.Name, in.Asset.Symbol)

	fmt.Fprintf(&b, "Market data:\n")
	fmt.Fprintf(&b, "- Price: $%.2f\n", in.Quote.CurrentPrice)
	fmt.Fprintf(&b, "- 24h change: %.2f%%\n", in.Quote.PriceChange24hPct)
	fmt.Fprintf(&b, "- 7d change: %.2f%%\n", in.Quote.PriceChange7dPct)
	fmt.Fprintf(&b, "- 30d change: %.2f%%\n", in.Quote.PriceChange30dPct)
	fmt.Fprintf(&b, "- Market cap rank: #%d\n", in.Quote.MarketCapRank)
	fmt.Fprintf(&b, "- 24h volume: $%.0f\n", in.Quote.TotalVolume)

	fmt.Fprintf(&b, "\nMarket mood:\n")
	fmt.Fprintf(&b, "- Fear & Greed index: %d (%s)\n", in.FearGreed.Value, in.FearGreed.Classification)
	fmt.Fprintf(&b, "- News sentiment: %s (%.0f/100) — %s\n",
		in.Sentiment.Sentiment, in.Sentiment.Score, in.Sentiment.Summary)

	if in.OnChain != nil {
		fmt.Fprintf(&b, "\nOn-chain (7d):\n")
		fmt.Fprintf(&b, "- Active addresses: %d\n", in.OnChain.ActiveAddresses)
		fmt.Fprintf(&b, "- Whale transactions: %d\n", in.OnChain.WhaleTransactions)
		fmt.Fprintf(&b, "- Exchange inflow: %.0f\n", in.OnChain.ExchangeInflow)
	}

	if in.DevActivity != nil {
		fmt.Fprintf(&b, "\nDeveloper activity (%s):\n", in.DevActivity.Repository)
		fmt.Fprintf(&b, "- Commits last 7d: %d\n", in.DevActivity.Commits7d)
		fmt.Fprintf(&b, "- Commits last 30d: %d\n", in.DevActivity.Commits30d)
	} else {
		fmt.Fprintf(&b, "\nDeveloper activity: no repository tracked for this asset.\n")
	}

	b.WriteString("\nRespond with JSON: {\"action\": \"BUY\"|\"SELL\"|\"HOLD\", " +
		"\"confidence\": <0-100>, \"reasoning\": \"<2-3 sentences>\"}")
	return b.String()
}
