package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"crypto-pulse/internal/domain"
)

type MarketReader interface {
	Prices(ctx context.Context) []domain.AssetQuote
}

type SignalReader interface {
	ListSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error)
}

type AnalysisTrigger interface {
	Begin(ctx context.Context) (*domain.AnalysisJob, error)
	Execute(ctx context.Context, job *domain.AnalysisJob) error
}

// StartTelegramBot wires the chat commands and starts long polling in
// the background. Without a token the bot is skipped entirely.
func StartTelegramBot(market MarketReader, signals SignalReader, pipeline AnalysisTrigger) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", strings.Join(domain.SupportedSymbols(), ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if _, ok := domain.AssetBySymbol(symbol); !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols(), ", ")))
		}
		for _, q := range market.Prices(context.Background()) {
			if q.Symbol == symbol {
				return c.Send(fmt.Sprintf(
					"%s (%s)\nPrice: $%.2f\n24h Change: %.2f%%\n7d Change: %.2f%%\n24h Volume: $%.0f",
					q.Name, symbol, q.CurrentPrice, q.PriceChange24hPct, q.PriceChange7dPct, q.TotalVolume,
				))
			}
		}
		return c.Send(fmt.Sprintf("No quote available for %s right now", symbol))
	})

	b.Handle("/signals", func(c tele.Context) error {
		latest, err := signals.ListSignals(context.Background(), 5)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching signals: %v", err))
		}
		if len(latest) == 0 {
			return c.Send("No signals yet. Run /analyze to start a pipeline run.")
		}
		var lines []string
		for _, s := range latest {
			lines = append(lines, fmt.Sprintf("%s %s (%.0f%%) — %s",
				s.Symbol, s.Action, s.Confidence, s.CreatedAt.Format("Jan 2 15:04")))
		}
		return c.Send("Latest signals:\n" + strings.Join(lines, "\n"))
	})

	b.Handle("/analyze", func(c tele.Context) error {
		job, err := pipeline.Begin(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Could not start analysis: %v", err))
		}
		go func() {
			if err := pipeline.Execute(context.Background(), job); err != nil {
				log.Printf("bot-triggered analysis run %d failed: %v", job.ID, err)
			}
		}()
		return c.Send(fmt.Sprintf("Analysis started, job %d", job.ID))
	})

	log.Println("Telegram bot started")
	go b.Start()
}
