// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port
// interfaces. Its core pieces are the per-symbol Feed loop and the Manager
// that owns all running feeds.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/quantstream/marketd/internal/app/hub"
	"github.com/quantstream/marketd/internal/domain"
	"github.com/quantstream/marketd/internal/domain/analytics"
	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/domain/notify"
	"github.com/quantstream/marketd/internal/platform/telemetry"
	"github.com/quantstream/marketd/internal/ports"
)

// FeedDeps bundles the collaborators a Feed needs. All fields except Mailer
// and Metrics are required; a nil Mailer disables email delivery and a nil
// Metrics disables instrument recording.
type FeedDeps struct {
	Quotes     ports.QuoteClient
	Store      ports.BarStore
	Strategies *analytics.Registry
	Tracker    *notify.Tracker
	Mailer     ports.Mailer
	Metrics    *telemetry.Metrics
	Logger     *slog.Logger
}

// Feed runs the background update loop for one symbol: it keeps the daily
// series fresh across trading-day transitions, polls for intraday datapoints
// while the market is open, persists every change, and broadcasts updates to
// its subscriber pools.
type Feed struct {
	symbol       string
	pollInterval time.Duration
	deps         FeedDeps
	hub          *hub.Hub
	logger       *slog.Logger
	now          func() time.Time

	mu         sync.RWMutex
	series     market.Series
	currentDay time.Time

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// ohlcvPayload is the wire shape of one bar inside a live update.
type ohlcvPayload struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// livePayload is broadcast on the "live" pool for every intraday datapoint.
type livePayload struct {
	Symbol    string       `json:"symbol"`
	Timestamp string       `json:"timestamp"`
	OHLCV     ohlcvPayload `json:"ohlcv"`
}

// analyticsPayload is broadcast on "analytics-<strategy>" pools.
type analyticsPayload struct {
	Symbol    string             `json:"symbol"`
	Strategy  string             `json:"strategy"`
	Timestamp string             `json:"timestamp"`
	Result    map[string]float64 `json:"result"`
}

// NewFeed creates a Feed for the symbol. The feed does nothing until Start.
func NewFeed(symbol string, pollInterval time.Duration, deps FeedDeps) *Feed {
	return &Feed{
		symbol:       symbol,
		pollInterval: pollInterval,
		deps:         deps,
		hub:          hub.New(),
		logger:       deps.Logger.With(slog.String("symbol", symbol)),
		now:          time.Now,
		done:         make(chan struct{}),
	}
}

// Start launches the background update loop. Subsequent calls are no-ops.
// The loop runs until ctx is canceled or Stop is called.
func (f *Feed) Start(ctx context.Context) {
	f.startOnce.Do(func() {
		ctx, f.cancel = context.WithCancel(ctx)
		go f.run(ctx)
	})
}

// Stop cancels the update loop and blocks until it has exited.
// Stopping a feed that was never started is a no-op.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

// Symbol returns the symbol this feed serves.
func (f *Feed) Symbol() string { return f.symbol }

// Ready reports whether the feed has a loaded series to serve.
func (f *Feed) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.series.Len() > 0
}

// Series returns a copy of the current daily series.
func (f *Feed) Series() market.Series {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.series.Clone()
}

// Subscribe registers sub on the named pool. Valid pools are
// [ports.LivePool] and analytics pools whose strategy is registered;
// an unknown strategy yields domain.ErrNotFound.
func (f *Feed) Subscribe(pool string, sub ports.Subscriber) error {
	if pool != ports.LivePool {
		name, ok := strings.CutPrefix(pool, ports.AnalyticsPoolPrefix)
		if !ok {
			return fmt.Errorf("pool %q: %w", pool, domain.ErrValidation)
		}
		if _, err := f.deps.Strategies.Get(name); err != nil {
			return err
		}
	}
	f.hub.Register(pool, sub)
	return nil
}

// Unsubscribe removes sub from the named pool. Unknown pools are ignored.
func (f *Feed) Unsubscribe(pool string, sub ports.Subscriber) {
	f.hub.Unregister(pool, sub)
}

// run is the feed's main loop: load the series, then on every tick refresh
// across trading-day transitions and poll for intraday updates. Errors are
// logged and the loop keeps going; a failed startup is retried by the
// trading-day check on the next tick.
func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	if err := f.startup(ctx); err != nil {
		f.logger.ErrorContext(ctx, "feed startup failed",
			slog.String("operation", "Feed.startup"),
			slog.Any("error", err),
		)
	}

	f.tick(ctx)

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.InfoContext(ctx, "feed stopped")
			return
		case <-ticker.C:
			f.tick(ctx)
		}
	}
}

// tick runs one iteration of the update loop.
func (f *Feed) tick(ctx context.Context) {
	result := "success"

	if err := f.checkNewTradingDay(ctx); err != nil {
		result = "error"
		f.logger.ErrorContext(ctx, "refreshing daily history",
			slog.String("operation", "Feed.checkNewTradingDay"),
			slog.Any("error", err),
		)
	}

	if err := f.pollIntraday(ctx); err != nil {
		result = "error"
		f.logger.ErrorContext(ctx, "polling intraday datapoint",
			slog.String("operation", "Feed.pollIntraday"),
			slog.Any("error", err),
		)
	}

	if f.deps.Metrics != nil {
		f.deps.Metrics.FeedPollTotal.Add(ctx, 1, metric.WithAttributes(
			telemetry.AttrSymbol.String(f.symbol),
			telemetry.AttrResult.String(result),
		))
	}
}

// startup loads the persisted series, downloading a fresh one when the cache
// is missing or older than the last completed trading day. A failed download
// falls back to the cached series when one exists.
func (f *Feed) startup(ctx context.Context) error {
	f.logger.InfoContext(ctx, "loading daily history")

	series, err := f.deps.Store.Load(ctx, f.symbol)
	if err != nil {
		f.logger.WarnContext(ctx, "cached series unreadable, re-downloading",
			slog.Any("error", err),
		)
	}

	if series.Len() == 0 || series.LastDay().Before(previousTradingDay(f.now())) {
		fresh, err := f.refresh(ctx)
		if err != nil {
			if series.Len() == 0 {
				return err
			}
			f.logger.WarnContext(ctx, "download failed, serving cached series",
				slog.Any("error", err),
			)
		} else {
			series = fresh
		}
	}

	f.mu.Lock()
	f.series = series
	f.currentDay = series.LastDay()
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "feed started",
		slog.Int("bars", series.Len()),
		slog.Time("last_day", series.LastDay()),
	)
	return nil
}

// refresh downloads the full daily series and persists it. A persistence
// failure is logged but does not fail the refresh; the in-memory series
// stays authoritative.
func (f *Feed) refresh(ctx context.Context) (market.Series, error) {
	series, err := f.deps.Quotes.DailyHistory(ctx, f.symbol)
	if err != nil {
		return nil, fmt.Errorf("downloading daily history: %w", err)
	}

	if err := f.deps.Store.Save(ctx, f.symbol, series); err != nil {
		f.logger.WarnContext(ctx, "persisting series",
			slog.Any("error", err),
		)
	}
	return series, nil
}

// checkNewTradingDay detects the transition to a new trading day and reloads
// the daily series. When the new day is not consecutive with the previous one
// (the service was down across sessions), the stale cache is archived first
// so the refreshed download starts clean.
func (f *Feed) checkNewTradingDay(ctx context.Context) error {
	now := f.now().In(market.Eastern())
	today := market.NormalizeDay(now)

	f.mu.RLock()
	current := f.currentDay
	f.mu.RUnlock()

	if market.SameDay(current, today) || !market.IsTradingDay(today) {
		return nil
	}

	f.logger.InfoContext(ctx, "new trading day", slog.Time("day", today))

	if !current.IsZero() && !market.IsConsecutiveTradingDays(current, today) {
		f.logger.WarnContext(ctx, "trading-day gap detected, archiving cached series",
			slog.Time("previous_day", current),
		)
		if err := f.deps.Store.Archive(ctx, f.symbol); err != nil {
			f.logger.WarnContext(ctx, "archiving series",
				slog.Any("error", err),
			)
		}
	}

	series, err := f.refresh(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.series = series
	f.currentDay = today
	f.mu.Unlock()
	return nil
}

// pollIntraday fetches the latest one-minute datapoint while the market is
// open, folds it into the daily series as today's provisional bar, persists,
// and broadcasts to the live and analytics pools. The intraday close is
// back-adjusted using the factor derived from the previous daily bar so the
// series stays consistent with the adjusted history.
func (f *Feed) pollIntraday(ctx context.Context) error {
	now := f.now().In(market.Eastern())
	if !market.IsOpen(now) {
		return nil
	}

	f.mu.RLock()
	loaded := f.series.Len() > 0
	f.mu.RUnlock()
	if !loaded {
		f.logger.WarnContext(ctx, "series not loaded, skipping intraday poll")
		return nil
	}

	bar, ok, err := f.deps.Quotes.LatestIntraday(ctx, f.symbol)
	if err != nil {
		return fmt.Errorf("fetching intraday datapoint: %w", err)
	}
	if !ok {
		return nil
	}

	ts := bar.Day
	today := market.NormalizeDay(now)

	f.mu.Lock()
	bar.AdjClose = bar.Close * f.series.Before(today).AdjustmentFactor()
	daily := bar
	daily.Day = market.NormalizeDay(bar.Day)
	f.series = f.series.Upsert(daily)
	snapshot := f.series.Clone()
	f.mu.Unlock()

	f.logger.DebugContext(ctx, "intraday datapoint",
		slog.Time("timestamp", ts),
		slog.Float64("adj_close", bar.AdjClose),
	)

	if err := f.deps.Store.Save(ctx, f.symbol, snapshot); err != nil {
		f.logger.WarnContext(ctx, "persisting series",
			slog.Any("error", err),
		)
	}

	f.broadcastLive(ctx, ts, bar)
	f.broadcastAnalytics(ctx, ts, snapshot)
	return nil
}

// broadcastLive publishes the intraday datapoint on the live pool.
func (f *Feed) broadcastLive(ctx context.Context, ts time.Time, bar market.Bar) {
	payload, err := json.Marshal(livePayload{
		Symbol:    f.symbol,
		Timestamp: ts.Format(time.RFC3339),
		OHLCV: ohlcvPayload{
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   bar.Volume,
		},
	})
	if err != nil {
		f.logger.ErrorContext(ctx, "encoding live payload", slog.Any("error", err))
		return
	}

	f.publish(ctx, ports.LivePool, payload)
}

// broadcastAnalytics evaluates every strategy that has subscribers and
// publishes the results on the matching pools. Strategy signals are routed
// through the notification pipeline regardless of whether the result payload
// is publishable.
func (f *Feed) broadcastAnalytics(ctx context.Context, ts time.Time, series market.Series) {
	for _, pool := range f.hub.Pools() {
		name, ok := strings.CutPrefix(pool, ports.AnalyticsPoolPrefix)
		if !ok {
			continue
		}

		strategy, err := f.deps.Strategies.Get(name)
		if err != nil {
			continue
		}

		result, signal, err := strategy.Evaluate(series)
		if err != nil {
			f.logger.ErrorContext(ctx, "evaluating strategy",
				slog.String("strategy", name),
				slog.Any("error", err),
			)
			continue
		}

		if signal != nil {
			f.dispatchSignal(ctx, name, ts, signal)
		}

		if result == nil {
			continue
		}

		payload, err := json.Marshal(analyticsPayload{
			Symbol:    f.symbol,
			Strategy:  name,
			Timestamp: ts.Format(time.RFC3339),
			Result:    result.Fields,
		})
		if err != nil {
			f.logger.ErrorContext(ctx, "encoding analytics payload",
				slog.String("strategy", name),
				slog.Any("error", err),
			)
			continue
		}

		f.publish(ctx, pool, payload)
	}
}

// publish sends payload to the pool and records the broadcast metric.
func (f *Feed) publish(ctx context.Context, pool string, payload []byte) {
	delivered := f.hub.Publish(pool, payload)
	if delivered > 0 && f.deps.Metrics != nil {
		f.deps.Metrics.BroadcastTotal.Add(ctx, int64(delivered), metric.WithAttributes(
			telemetry.AttrSymbol.String(f.symbol),
			telemetry.AttrPool.String(pool),
		))
	}
}

// dispatchSignal turns a strategy signal into a notification, applies the
// cooldown, and hands deliverable notifications to the mailer.
func (f *Feed) dispatchSignal(ctx context.Context, strategy string, ts time.Time, signal *analytics.Signal) {
	n := notify.Notification{
		Symbol:   f.symbol,
		Strategy: strategy,
		Label:    signal.Label,
		Time:     ts,
		Message:  signal.Message,
	}

	result := "delivered"
	if !f.deps.Tracker.Register(n) {
		result = "suppressed"
		f.logger.DebugContext(ctx, "notification suppressed by cooldown",
			slog.String("strategy", strategy),
			slog.String("label", signal.Label),
		)
	} else {
		f.logger.InfoContext(ctx, "notification triggered",
			slog.String("strategy", strategy),
			slog.String("label", signal.Label),
			slog.String("message", signal.Message),
		)
		if f.deps.Mailer != nil {
			if err := f.deps.Mailer.Send(ctx, n); err != nil {
				f.logger.ErrorContext(ctx, "sending notification",
					slog.String("strategy", strategy),
					slog.Any("error", err),
				)
			}
		}
	}

	if f.deps.Metrics != nil {
		f.deps.Metrics.NotificationTotal.Add(ctx, 1, metric.WithAttributes(
			telemetry.AttrSymbol.String(f.symbol),
			telemetry.AttrStrategy.String(strategy),
			telemetry.AttrResult.String(result),
		))
	}
}

// previousTradingDay returns the last trading day strictly before t.
func previousTradingDay(t time.Time) time.Time {
	d := market.NormalizeDay(t.In(market.Eastern())).AddDate(0, 0, -1)
	for !market.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
