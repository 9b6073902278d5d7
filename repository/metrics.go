package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "sql_query_duration_seconds",
	Help: "Duration of sql queries in seconds",
}, []string{"query"})

var PointsAwardedCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "points_awarded_total",
	Help: "Total number of points awarded through submission approvals",
})

var SubmissionsReviewedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "submissions_reviewed_total",
	Help: "Number of reviewed submissions by outcome",
}, []string{"outcome"})
