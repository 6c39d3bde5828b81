package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProposalsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licitaph_proposals_submitted_total",
		Help: "Proposals accepted for open solicitations.",
	})

	GateRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licitaph_gate_rejections_total",
		Help: "Reads or submissions refused by the sealed-bid gate.",
	})

	Adjudications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "licitaph_adjudications_total",
		Help: "Adjudication attempts by outcome.",
	}, []string{"outcome"})

	EvaluatorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "licitaph_evaluator_failures_total",
		Help: "Evaluator calls that failed or timed out; scoring degrades.",
	})
)
