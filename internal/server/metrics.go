package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_uploads_total",
		Help: "PDF upload requests by outcome.",
	}, []string{"outcome"})

	asksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medassist_asks_total",
		Help: "Question requests by outcome.",
	}, []string{"outcome"})
)
