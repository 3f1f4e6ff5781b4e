package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	candidateQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buddyfit",
		Subsystem: "matching",
		Name:      "candidate_queries_total",
		Help:      "Number of candidate discovery queries served.",
	})
	scoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "buddyfit",
		Subsystem: "matching",
		Name:      "scoring_duration_seconds",
		Help:      "Wall time of a full discovery + scoring pass.",
		Buckets:   prometheus.DefBuckets,
	})
	buddyRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buddyfit",
		Subsystem: "buddies",
		Name:      "requests_total",
		Help:      "Buddy requests successfully created.",
	})
	buddyResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buddyfit",
		Subsystem: "buddies",
		Name:      "responses_total",
		Help:      "Buddy request responses by action.",
	}, []string{"action"})
	workoutsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buddyfit",
		Subsystem: "analytics",
		Name:      "workouts_ingested_total",
		Help:      "Workouts accepted by the engine, by type.",
	}, []string{"type"})
	milestones = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buddyfit",
		Subsystem: "analytics",
		Name:      "goal_milestones_total",
		Help:      "Goal completions detected during attribution.",
	})
)

func init() {
	prometheus.MustRegister(candidateQueries, scoringDuration, buddyRequests,
		buddyResponses, workoutsIngested, milestones)
}

// ObserveCandidateQuery records one discovery pass and its duration.
func ObserveCandidateQuery(d time.Duration) {
	candidateQueries.Inc()
	scoringDuration.Observe(d.Seconds())
}

func RecordBuddyRequest() {
	buddyRequests.Inc()
}

func RecordBuddyResponse(action string) {
	buddyResponses.WithLabelValues(action).Inc()
}

func RecordWorkoutIngested(workoutType string) {
	workoutsIngested.WithLabelValues(workoutType).Inc()
}

func RecordMilestone() {
	milestones.Inc()
}
