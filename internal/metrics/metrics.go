package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckinsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_checkins_recorded_total", Help: "Total check-ins written, by origin"},
		[]string{"origin"},
	)
	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_badges_awarded_total", Help: "Total badges awarded, by kind"},
		[]string{"kind"},
	)
	SyncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "engine_sync_runs_total", Help: "Auto check-in synchronizer runs, by result"},
		[]string{"result"},
	)
	ChallengesFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "engine_challenges_finalized_total", Help: "Challenges finalized exactly once"},
	)
)

func Register() {
	prometheus.MustRegister(CheckinsRecorded, BadgesAwarded, SyncRuns, ChallengesFinalized)
}
