// Package monitor runs the two fixed-interval pollers that keep the latest
// gold quotes in memory: the official association quote and the external
// spot price. Each poller is an independent loop; a failed poll logs and
// leaves the previously held value untouched, the fixed interval being the
// only retry mechanism.
//
// The monitor also watches the official ask for significant moves and hands
// them to an optional notifier, deduplicating same-direction repeats inside
// a cooldown window.
package monitor

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"goldwatch/internal/goldapi"
	"goldwatch/internal/goldtraders"
	"goldwatch/internal/logger"
	"goldwatch/internal/models"
)

// staleAfterIntervals: a source with no successful poll for this many
// intervals is reported stale. The last-known value is still served.
const staleAfterIntervals = 3

// Notifier delivers price alerts. Satisfied by telegram.Notifier.
type Notifier interface {
	SendAlert(models.PriceAlert) error
}

type alertState struct {
	ask       float64
	direction string
	sentAt    time.Time
}

// Monitor holds the last good quotes and drives the poll loops.
type Monitor struct {
	mu           sync.RWMutex
	official     *models.OfficialQuote
	officialAt   time.Time
	spotPerOunce float64
	spotAt       time.Time

	gold *goldtraders.Client
	spot *goldapi.Client

	officialInterval time.Duration
	spotInterval     time.Duration

	alertMu   sync.Mutex
	notifier  Notifier
	minMove   float64
	cooldown  time.Duration
	lastAlert *alertState
}

// New creates a Monitor. spot may be nil when no API key is configured;
// the spot poller then never runs and spot-derived prices stay at zero.
func New(gold *goldtraders.Client, spot *goldapi.Client, officialInterval, spotInterval time.Duration) *Monitor {
	return &Monitor{
		gold:             gold,
		spot:             spot,
		officialInterval: officialInterval,
		spotInterval:     spotInterval,
	}
}

// EnableAlerts turns on ask-move alerting through the given notifier.
func (m *Monitor) EnableAlerts(n Notifier, minMove float64, cooldown time.Duration) {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()
	m.notifier = n
	m.minMove = minMove
	m.cooldown = cooldown
}

// Run starts both pollers and blocks until ctx is cancelled. Each poller
// fires immediately, then on its own ticker; neither blocks the other.
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.pollLoop(ctx, m.officialInterval, m.pollOfficial)
	}()

	if m.spot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.pollLoop(ctx, m.spotInterval, m.pollSpot)
		}()
	}

	wg.Wait()
}

func (m *Monitor) pollLoop(ctx context.Context, interval time.Duration, poll func(context.Context)) {
	poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll(ctx)
		}
	}
}

func (m *Monitor) pollOfficial(ctx context.Context) {
	quote, err := m.gold.FetchQuote(ctx)
	if err != nil {
		if errors.Is(err, goldtraders.ErrParseFailed) {
			logger.Warn("Official quote unparsable, keeping last value: %v", err)
		} else {
			logger.Warn("Official quote fetch failed, keeping last value: %v", err)
		}
		return
	}
	m.SetOfficial(quote)
}

func (m *Monitor) pollSpot(ctx context.Context) {
	price, err := m.spot.FetchPrice(ctx)
	if err != nil {
		logger.Warn("Spot price fetch failed, keeping last value: %v", err)
		return
	}
	m.SetSpotPerOunce(price)
}

// SetOfficial replaces the held official quote wholesale and runs alerting.
// Also called by the /api/thai-gold handler so an on-demand fetch refreshes
// the dashboard state.
func (m *Monitor) SetOfficial(quote *models.OfficialQuote) {
	m.mu.Lock()
	m.official = quote
	m.officialAt = time.Now()
	m.mu.Unlock()

	logger.Debug("Official quote updated: bid=%.2f ask=%.2f", quote.Bid, quote.Ask)
	m.maybeAlert(quote)
}

// SetSpotPerOunce replaces the held spot price.
func (m *Monitor) SetSpotPerOunce(price float64) {
	m.mu.Lock()
	m.spotPerOunce = price
	m.spotAt = time.Now()
	m.mu.Unlock()

	logger.Debug("Spot price updated: %.2f THB/oz", price)
}

// Official returns the last good official quote, its fetch time, and a
// staleness flag. Before the first successful poll it returns a zero quote
// marked stale.
func (m *Monitor) Official() (models.OfficialQuote, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.official == nil {
		return models.OfficialQuote{}, time.Time{}, true
	}
	stale := time.Since(m.officialAt) > time.Duration(staleAfterIntervals)*m.officialInterval
	return *m.official, m.officialAt, stale
}

// SpotPerOunce returns the last good spot price per ounce, its fetch time,
// and a staleness flag.
func (m *Monitor) SpotPerOunce() (float64, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.spotAt.IsZero() {
		return 0, time.Time{}, true
	}
	stale := time.Since(m.spotAt) > time.Duration(staleAfterIntervals)*m.spotInterval
	return m.spotPerOunce, m.spotAt, stale
}

// maybeAlert compares the new ask against the last alerted value (or, before
// any alert, against nothing — the first quote only arms the baseline) and
// sends an alert for moves of at least minMove. Same-direction repeats
// inside the cooldown are suppressed; a direction flip alerts immediately.
func (m *Monitor) maybeAlert(quote *models.OfficialQuote) {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	if m.notifier == nil {
		return
	}
	if m.lastAlert == nil {
		m.lastAlert = &alertState{ask: quote.Ask}
		return
	}

	delta := quote.Ask - m.lastAlert.ask
	if math.Abs(delta) < m.minMove {
		return
	}
	direction := "up"
	if delta < 0 {
		direction = "down"
	}
	if direction == m.lastAlert.direction && time.Since(m.lastAlert.sentAt) < m.cooldown {
		logger.Debug("Suppressing repeat %s alert inside cooldown", direction)
		return
	}

	alert := models.PriceAlert{
		ID:        uuid.New().String(),
		Bid:       quote.Bid,
		Ask:       quote.Ask,
		PrevAsk:   m.lastAlert.ask,
		Delta:     delta,
		Direction: direction,
		At:        time.Now(),
	}
	if err := m.notifier.SendAlert(alert); err != nil {
		logger.Error("Failed to send price alert: %v", err)
		return
	}
	logger.Info("Sent price alert: ask %.2f -> %.2f (%s)", alert.PrevAsk, alert.Ask, direction)
	m.lastAlert = &alertState{ask: quote.Ask, direction: direction, sentAt: time.Now()}
}
