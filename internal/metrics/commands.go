// SPDX-License-Identifier: MIT

// Package metrics exposes prometheus collectors for the control plane.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsStarted counts admitted commands by prompt.
	CommandsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petpal_commands_started_total",
		Help: "Total number of admitted commands by prompt",
	}, []string{"prompt"})

	// CommandsCompleted counts finished commands by prompt and terminal outcome.
	CommandsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petpal_commands_completed_total",
		Help: "Total number of completed commands by prompt and outcome",
	}, []string{"prompt", "outcome"})

	// CommandsRejectedBusy counts admissions refused under the single-active rule.
	CommandsRejectedBusy = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petpal_commands_rejected_busy_total",
		Help: "Total number of commands rejected because another command was active",
	})

	// CommandDuration tracks wall-clock command duration to a terminal state.
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petpal_command_duration_seconds",
		Help:    "Wall-clock duration of commands from admission to terminal state",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"prompt"})

	// ChunksSent counts control chunks forwarded to the arm driver.
	ChunksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petpal_control_chunks_sent_total",
		Help: "Total number of control chunks forwarded to the arm driver",
	})

	// SafetyRejections counts chunks rejected by the safety gate.
	SafetyRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petpal_safety_rejections_total",
		Help: "Total number of control chunks rejected by joint-limit validation",
	})

	// Preemptions counts go-home preemptions of an active command.
	Preemptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petpal_preemptions_total",
		Help: "Total number of go-home preemptions",
	})

	// TreatsDispensed counts treat dispenses by result.
	TreatsDispensed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petpal_treats_dispensed_total",
		Help: "Total number of treat dispense attempts by result",
	}, []string{"result"})

	// Utterances counts speaker activity by stage.
	Utterances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petpal_utterances_total",
		Help: "Total number of utterances by stage (queued, spoken, failed, rejected)",
	}, []string{"stage"})

	// VideoFramesServed counts MJPEG frames written to clients.
	VideoFramesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "petpal_video_frames_served_total",
		Help: "Total number of MJPEG frames written to clients",
	})

	// VideoClients tracks concurrently connected MJPEG clients.
	VideoClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "petpal_video_clients",
		Help: "Current number of connected MJPEG clients",
	})

	// CalibrationReloads counts calibration hot reloads by result.
	CalibrationReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petpal_calibration_reloads_total",
		Help: "Total number of calibration reload attempts by result",
	}, []string{"result"})
)

// IncCommandStarted records an admitted command.
func IncCommandStarted(prompt string) {
	CommandsStarted.WithLabelValues(prompt).Inc()
}

// ObserveCommandCompleted records a terminal transition with its duration.
func ObserveCommandCompleted(prompt, outcome string, duration time.Duration) {
	CommandsCompleted.WithLabelValues(prompt, outcome).Inc()
	CommandDuration.WithLabelValues(prompt).Observe(duration.Seconds())
}

// IncUtterance records speaker activity at the given stage.
func IncUtterance(stage string) {
	Utterances.WithLabelValues(stage).Inc()
}

// IncTreatDispensed records a dispense attempt outcome.
func IncTreatDispensed(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	TreatsDispensed.WithLabelValues(result).Inc()
}

// IncCalibrationReload records a calibration reload outcome.
func IncCalibrationReload(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	CalibrationReloads.WithLabelValues(result).Inc()
}
