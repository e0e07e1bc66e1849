package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"goldwatch/internal/goldapi"
	"goldwatch/internal/goldtraders"
	"goldwatch/internal/models"
)

func officialPage(bid, ask string) string {
	return fmt.Sprintf(
		`<html>ราคาทองตามประกาศสมาคมค้าทองคำ <table><tr><td>ทองคำแท่ง</td><td>รับซื้อ</td><td>%s</td></tr>`+
			`<tr><td>ทองคำแท่ง</td><td>ขายออก</td><td>%s</td></tr></table> ราคาทองทุกชนิด</html>`,
		bid, ask)
}

type fakeNotifier struct {
	alerts []models.PriceAlert
	fail   bool
}

func (f *fakeNotifier) SendAlert(a models.PriceAlert) error {
	if f.fail {
		return fmt.Errorf("delivery failed")
	}
	f.alerts = append(f.alerts, a)
	return nil
}

func TestPollOfficialRetainsLastGoodQuote(t *testing.T) {
	var calls atomic.Int64
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, officialPage("50,700.00", "50,800.00"))
			return
		}
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer mockServer.Close()

	m := New(goldtraders.NewClient(mockServer.URL, time.Second), nil, time.Minute, time.Minute)

	m.pollOfficial(context.Background())
	quote, _, _ := m.Official()
	if quote.Ask != 50800 {
		t.Fatalf("Ask = %v, want 50800", quote.Ask)
	}

	// Second poll fails to parse; the held quote must survive untouched.
	m.pollOfficial(context.Background())
	quote, _, _ = m.Official()
	if quote.Ask != 50800 || quote.Bid != 50700 {
		t.Errorf("failed poll clobbered last good quote: %+v", quote)
	}
}

func TestPollSpotRetainsLastGoodPrice(t *testing.T) {
	var calls atomic.Int64
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			fmt.Fprint(w, `{"price": 65000}`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer mockServer.Close()

	m := New(nil, goldapi.NewClient(mockServer.URL, "k", time.Second), time.Minute, time.Minute)

	m.pollSpot(context.Background())
	price, _, _ := m.SpotPerOunce()
	if price != 65000 {
		t.Fatalf("price = %v, want 65000", price)
	}

	m.pollSpot(context.Background())
	price, _, _ = m.SpotPerOunce()
	if price != 65000 {
		t.Errorf("failed poll clobbered last good price: %v", price)
	}
}

func TestOfficialBeforeFirstPollIsStale(t *testing.T) {
	m := New(nil, nil, time.Minute, time.Minute)

	quote, _, stale := m.Official()
	if !stale {
		t.Error("expected stale before first poll")
	}
	if quote.Ask != 0 {
		t.Errorf("expected zero quote, got %+v", quote)
	}

	if _, _, stale := m.SpotPerOunce(); !stale {
		t.Error("expected spot stale before first poll")
	}
}

func TestOfficialFreshAfterSet(t *testing.T) {
	m := New(nil, nil, time.Minute, time.Minute)
	m.SetOfficial(&models.OfficialQuote{Bid: 50700, Ask: 50800, Updated: "09:00:00"})

	quote, at, stale := m.Official()
	if stale {
		t.Error("fresh quote reported stale")
	}
	if at.IsZero() {
		t.Error("fetch time not recorded")
	}
	if quote.Updated != "09:00:00" {
		t.Errorf("Updated = %q", quote.Updated)
	}
}

func TestAlertOnLargeMove(t *testing.T) {
	m := New(nil, nil, time.Minute, time.Minute)
	n := &fakeNotifier{}
	m.EnableAlerts(n, 100, time.Hour)

	// First quote only arms the baseline, never alerts.
	m.SetOfficial(&models.OfficialQuote{Bid: 50600, Ask: 50700})
	if len(n.alerts) != 0 {
		t.Fatalf("first quote must not alert, got %d alerts", len(n.alerts))
	}

	// Below the floor: no alert.
	m.SetOfficial(&models.OfficialQuote{Bid: 50650, Ask: 50750})
	if len(n.alerts) != 0 {
		t.Fatalf("move below floor must not alert, got %d", len(n.alerts))
	}

	// At the floor, measured against the armed baseline (50700 -> 50800).
	m.SetOfficial(&models.OfficialQuote{Bid: 50700, Ask: 50800})
	if len(n.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(n.alerts))
	}
	a := n.alerts[0]
	if a.Direction != "up" || a.Delta != 100 || a.PrevAsk != 50700 {
		t.Errorf("unexpected alert: %+v", a)
	}
	if a.ID == "" {
		t.Error("alert without ID")
	}
}

func TestAlertCooldownSuppressesSameDirection(t *testing.T) {
	m := New(nil, nil, time.Minute, time.Minute)
	n := &fakeNotifier{}
	m.EnableAlerts(n, 100, time.Hour)

	m.SetOfficial(&models.OfficialQuote{Bid: 50600, Ask: 50700})
	m.SetOfficial(&models.OfficialQuote{Bid: 50700, Ask: 50850}) // alerts, up
	m.SetOfficial(&models.OfficialQuote{Bid: 50900, Ask: 51000}) // same direction, inside cooldown
	if len(n.alerts) != 1 {
		t.Fatalf("expected repeat suppressed, got %d alerts", len(n.alerts))
	}

	// A direction flip bypasses the cooldown.
	m.SetOfficial(&models.OfficialQuote{Bid: 50500, Ask: 50600})
	if len(n.alerts) != 2 {
		t.Fatalf("direction flip should alert, got %d alerts", len(n.alerts))
	}
	if n.alerts[1].Direction != "down" {
		t.Errorf("Direction = %q, want down", n.alerts[1].Direction)
	}
}

func TestAlertDeliveryFailureKeepsBaseline(t *testing.T) {
	m := New(nil, nil, time.Minute, time.Minute)
	n := &fakeNotifier{fail: true}
	m.EnableAlerts(n, 100, time.Hour)

	m.SetOfficial(&models.OfficialQuote{Bid: 50600, Ask: 50700})
	m.SetOfficial(&models.OfficialQuote{Bid: 50700, Ask: 50850})

	// Delivery failed, so the baseline must not advance: the next quote is
	// still measured against 50700 and retried.
	n.fail = false
	m.SetOfficial(&models.OfficialQuote{Bid: 50750, Ask: 50860})
	if len(n.alerts) != 1 {
		t.Fatalf("expected retried alert after failure, got %d", len(n.alerts))
	}
	if n.alerts[0].PrevAsk != 50700 {
		t.Errorf("PrevAsk = %v, want 50700", n.alerts[0].PrevAsk)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, officialPage("50,700.00", "50,800.00"))
	}))
	defer mockServer.Close()

	m := New(goldtraders.NewClient(mockServer.URL, time.Second), nil, 10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	if quote, _, _ := m.Official(); quote.Ask != 50800 {
		t.Errorf("poll loop never captured a quote: %+v", quote)
	}
}
