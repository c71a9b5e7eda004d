// Package metrics содержит коллекторы Prometheus консоли.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuardTransitions считает переходы автоматов доступа.
	GuardTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_admin_guard_transitions_total",
		Help: "Route guard state transitions.",
	}, []string{"guard", "from", "to"})

	// Mutations считает изменения ресторанов и подписок по результату.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_admin_mutations_total",
		Help: "Dashboard mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// ActiveClients: число живых клиентов консоли.
	ActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "food_admin_active_clients",
		Help: "Console clients currently held in memory.",
	})

	// EventsConsumed считает события, прочитанные аудитом.
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "food_admin_events_consumed_total",
		Help: "Domain events consumed by the audit worker.",
	}, []string{"routing_key", "outcome"})
)

// Исходы изменений.
const (
	OutcomeSuccess           = "success"
	OutcomeAlreadySubscribed = "already_subscribed"
	OutcomeNotFound          = "not_found"
	OutcomeFailure           = "failure"
)
