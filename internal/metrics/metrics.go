// Package metrics 游戏引擎与HTTP层的prometheus指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geo_guess"

var (
	// Registry 应用自己的指标注册表
	Registry = prometheus.NewRegistry()

	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_created_total",
			Help:      "Total number of game sessions created.",
		},
		[]string{"mode"},
	)

	sessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "sessions_finished_total",
			Help:      "Total number of game sessions that reached a terminal status.",
		},
		[]string{"mode", "status"},
	)

	questionsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "questions_generated_total",
			Help:      "Total number of questions generated.",
		},
		[]string{"mode"},
	)

	answersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "answers_total",
			Help:      "Total number of answers scored.",
		},
		[]string{"mode", "correct"},
	)

	answerScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "answer_score",
			Help:      "Score awarded per answer.",
			Buckets:   prometheus.LinearBuckets(0, 500, 11),
		},
		[]string{"mode"},
	)

	answerDistance = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "answer_distance_km",
			Help:      "Distance between guess and correct location.",
			Buckets:   []float64{1, 5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
		},
		[]string{"mode"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms到约5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		sessionsCreated,
		sessionsFinished,
		questionsGenerated,
		answersSubmitted,
		answerScore,
		answerDistance,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler 暴露指标的HTTP处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordSessionCreated 记录开局
func RecordSessionCreated(mode string) {
	sessionsCreated.WithLabelValues(mode).Inc()
}

// RecordSessionFinished 记录会话结束（完成或放弃）
func RecordSessionFinished(mode, status string) {
	sessionsFinished.WithLabelValues(mode, status).Inc()
}

// RecordQuestionGenerated 记录出题
func RecordQuestionGenerated(mode string) {
	questionsGenerated.WithLabelValues(mode).Inc()
}

// RecordAnswer 记录一次作答的得分和距离
func RecordAnswer(mode string, correct bool, score int, distanceKm float64) {
	answersSubmitted.WithLabelValues(mode, strconv.FormatBool(correct)).Inc()
	answerScore.WithLabelValues(mode).Observe(float64(score))
	answerDistance.WithLabelValues(mode).Observe(distanceKm)
}

// RecordHTTPRequest 记录HTTP请求，path使用路由模板避免标签爆炸
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
