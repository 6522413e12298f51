// Package metrics holds the domain counters. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	streakActivity      *prometheus.CounterVec
	leaderboardBuilds   *prometheus.CounterVec
	workshopTransitions *prometheus.CounterVec
	notifications       *prometheus.CounterVec
	assessmentScoring   *prometheus.HistogramVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		streakActivity: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streak_activity_total",
				Help: "Recorded activities by streak outcome",
			},
			[]string{"outcome"},
		),
		leaderboardBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaderboard_builds_total",
				Help: "Leaderboard reads by source (cache or build)",
			},
			[]string{"source"},
		),
		workshopTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workshop_transitions_total",
				Help: "Workshop review transitions",
			},
			[]string{"transition"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dispatched_total",
				Help: "Notification dispatch results",
			},
			[]string{"result"},
		),
		assessmentScoring: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assessment_scoring_duration_seconds",
				Help:    "Time spent scoring a resume",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.streakActivity, m.leaderboardBuilds, m.workshopTransitions, m.notifications, m.assessmentScoring)
	}
	return m
}

func (m *Metrics) StreakActivity(outcome string) {
	if m == nil {
		return
	}
	m.streakActivity.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LeaderboardBuild(source string) {
	if m == nil {
		return
	}
	m.leaderboardBuilds.WithLabelValues(source).Inc()
}

func (m *Metrics) WorkshopTransition(transition string) {
	if m == nil {
		return
	}
	m.workshopTransitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) NotificationDispatched(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) AssessmentScored(result string, seconds float64) {
	if m == nil {
		return
	}
	m.assessmentScoring.WithLabelValues(result).Observe(seconds)
}
