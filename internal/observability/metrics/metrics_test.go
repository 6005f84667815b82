package metrics

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHelpersAreNoopsBeforeInit(t *testing.T) {
	if loadTotal != nil {
		t.Skip("metrics already registered")
	}
	ObserveLoad(SourceCache, ResultSuccess, time.Millisecond)
	IncReschedule("start", ResultSuccess)
	IncCacheWrite("cc:stations", ResultError)
	IncCacheRead("cc:stations", CacheHit)
	ObserveExport("csv", ResultSuccess, time.Millisecond)
	AddStreamClients(1)
}

func TestInitRegistersCalendarMetrics(t *testing.T) {
	Init(nil, "", log.New(io.Discard, "", 0))
	Init(nil, "", nil)

	IncReschedule("", "")
	IncCacheRead("cc:stations", CacheMiss)
	ObserveLoad(SourceRemote, ResultError, 20*time.Millisecond)
	ObserveExport("ics", ResultSuccess, time.Millisecond)
	AddStreamClients(2)
	AddStreamClients(-2)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := make(map[string]int)
	for _, family := range families {
		seen[family.GetName()] = len(family.GetMetric())
	}
	for _, name := range []string{
		"calendar_load_total",
		"calendar_load_latency_seconds",
		"calendar_reschedule_total",
		"calendar_cache_reads_total",
		"calendar_export_total",
		"calendar_stream_clients",
	} {
		if seen[name] == 0 {
			t.Fatalf("expected %s to be gathered, got %v", name, seen)
		}
	}
	if _, ok := seen["calendar_kv_entries"]; ok {
		t.Fatalf("kv gauge must not be registered without a db")
	}
}
