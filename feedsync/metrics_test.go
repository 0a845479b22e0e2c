package feedsync

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/CrestNiraj12/novaterm/domain"
)

func TestMetricsCountFetchesAndMutations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	feed := newLogFeed(120)
	muts := &stubMutations{feed: feed}
	c := NewController(Deps{Feed: feed, Mutations: muts, Config: Config{PollInterval: time.Hour}, Metrics: m})
	t.Cleanup(c.Close)

	openController(t, c)
	if err := c.LoadOlder(context.Background()); err != nil {
		t.Fatalf("load older: %v", err)
	}
	if err := c.Dispatch(context.Background(), domain.Send{Content: "hi"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	_ = c.Dispatch(context.Background(), domain.Send{Content: ""})

	if got := testutil.ToFloat64(m.fetches.WithLabelValues(kindLive, "ok")); got != 2 {
		t.Fatalf("live fetches: got %v want 2", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues(kindHistory, "ok")); got != 1 {
		t.Fatalf("history fetches: got %v want 1", got)
	}
	if got := testutil.ToFloat64(m.mutations.WithLabelValues("send", "error")); got != 1 {
		t.Fatalf("failed sends: got %v want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"novaterm_feed_fetches_total", "novaterm_feed_mutations_total", "novaterm_feed_fetch_seconds"} {
		if !names[want] {
			t.Fatalf("metric %s not registered", want)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.fetch(kindLive, "ok", 0)
	m.skip("rate")
	m.mutation("send", nil)
}
