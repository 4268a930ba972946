package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentsTotal counts visitor payments recorded against the shift.
	PaymentsTotal prometheus.Counter
	// DischargesTotal counts outgoing cash payments recorded against the shift.
	DischargesTotal prometheus.Counter
	// ShiftsClosedTotal counts shifts persisted at close.
	ShiftsClosedTotal prometheus.Counter
	// VisitorsPresent tracks the number of visitors currently checked in.
	VisitorsPresent prometheus.Gauge
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PaymentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Number of visitor payments recorded.",
		})
		DischargesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discharges_total",
			Help:      "Number of outgoing cash payments recorded.",
		})
		ShiftsClosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shifts_closed_total",
			Help:      "Number of shifts closed and persisted.",
		})
		VisitorsPresent = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visitors_present",
			Help:      "Visitors currently checked in.",
		})

		mustRegisterCollector(reg, PaymentsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PaymentsTotal = v
			}
		})
		mustRegisterCollector(reg, DischargesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				DischargesTotal = v
			}
		})
		mustRegisterCollector(reg, ShiftsClosedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ShiftsClosedTotal = v
			}
		})
		mustRegisterCollector(reg, VisitorsPresent, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				VisitorsPresent = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
