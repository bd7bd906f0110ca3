// Package metrics exposes shopping list and inventory activity as Prometheus metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/grocerybutler/backend/internal/domain"
	"github.com/grocerybutler/backend/internal/usecase"
)

const namespace = "grocerybutler"

// Collector records domain activity. It implements usecase.Recorder.
type Collector struct {
	consolidations      prometheus.Counter
	consolidationTime   prometheus.Histogram
	itemsEmitted        prometheus.Counter
	malformedInputs     prometheus.Counter
	categoryConflicts   prometheus.Counter
	excludedGroups      prometheus.Counter
	unmatchedAdditions  prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	restockOutcomes     *prometheus.CounterVec
	mealsResolved       *prometheus.CounterVec
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New registers the collector's metrics on reg
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		consolidations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidations_total",
			Help:      "Completed shopping list consolidation runs.",
		}),
		consolidationTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "consolidation_duration_seconds",
			Help:      "Time spent consolidating a shopping list.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		itemsEmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_items_total",
			Help:      "Shopping list lines emitted.",
		}),
		malformedInputs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_inputs_total",
			Help:      "Meals or additions rejected by input validation.",
		}),
		categoryConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_conflicts_total",
			Help:      "Merge groups whose sources disagreed on category.",
		}),
		excludedGroups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_groups_total",
			Help:      "Merge groups left off the list by the exclusion policy.",
		}),
		unmatchedAdditions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_restock_additions_total",
			Help:      "Restock additions that matched no tracked inventory key.",
		}),
		statusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_status_transitions_total",
			Help:      "Inventory status changes by target status.",
		}, []string{"status"}),
		restockOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restock_requests_total",
			Help:      "Restock names by resolution outcome.",
		}, []string{"outcome"}),
		mealsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meals_resolved_total",
			Help:      "Meal names resolved by source.",
		}, []string{"source"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ConsolidationCompleted records one consolidation run
func (c *Collector) ConsolidationCompleted(elapsed time.Duration, result *usecase.ConsolidationResult) {
	c.consolidations.Inc()
	c.consolidationTime.Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	c.itemsEmitted.Add(float64(len(result.Items)))
	c.malformedInputs.Add(float64(len(result.Malformed)))
	c.categoryConflicts.Add(float64(len(result.Conflicts)))
	c.excludedGroups.Add(float64(len(result.Excluded)))
	c.unmatchedAdditions.Add(float64(len(result.Unmatched)))
}

// StatusTransition records an inventory status change
func (c *Collector) StatusTransition(status domain.InventoryStatus) {
	c.statusTransitions.WithLabelValues(string(status)).Inc()
}

// RestockOutcome records how one restock name was resolved
func (c *Collector) RestockOutcome(outcome string) {
	c.restockOutcomes.WithLabelValues(outcome).Inc()
}

// MealResolved records where a meal's ingredients came from
func (c *Collector) MealResolved(source string) {
	c.mealsResolved.WithLabelValues(source).Inc()
}

// ObserveHTTP records one served request. route is the matched route template.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ usecase.Recorder = (*Collector)(nil)
