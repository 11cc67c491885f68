// utils/metrics.go
package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DuelsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dus",
		Name:      "duels_created_total",
		Help:      "Total number of duel challenges created",
	})

	DuelsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dus",
		Name:      "duels_completed_total",
		Help:      "Total number of duels completed, by outcome",
	}, []string{"outcome"}) // win or draw

	AnswersRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dus",
		Name:      "answers_recorded_total",
		Help:      "Total number of question answers recorded",
	})

	StudySessionsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dus",
		Name:      "study_sessions_ended_total",
		Help:      "Total number of study sessions closed",
	})
)
