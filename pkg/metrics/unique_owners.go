package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type uniqueOwners struct {
	counter    prometheus.Gauge
	ownerCache map[string]struct{}
	mu         sync.Mutex
}

const ownersCountPerWeek = "owners_count_per_week"

var totalUniqueOwnersPerWeekMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: assessorSubsystem,
		Name:      ownersCountPerWeek,
		Help:      "number of distinct owners submitting assessments this week",
	},
)

// UniqueOwnersPerWeek counts distinct owners until the metrics server resets it.
var UniqueOwnersPerWeek = &uniqueOwners{
	counter:    totalUniqueOwnersPerWeekMetric,
	ownerCache: make(map[string]struct{}),
}

func (v *uniqueOwners) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.ownerCache = make(map[string]struct{})
	v.counter.Set(0)
}

func (v *uniqueOwners) Observe(owner string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.ownerCache[owner]; exists {
		return
	}

	v.ownerCache[owner] = struct{}{}
	v.counter.Inc()
}

func (v *uniqueOwners) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.ownerCache)
}
