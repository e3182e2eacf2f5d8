// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 估值计算计数（按模型区分）
	ValuationsTotal *prometheus.CounterVec
	// 估值计算耗时
	ValuationDuration prometheus.Histogram
	// 校准计算计数
	CalibrationsTotal prometheus.Counter
	// 校准未收敛计数
	CalibrationFailures prometheus.Counter
	// 校准迭代次数分布
	CalibrationIterations prometheus.Histogram
	// 二叉树步数分布
	LatticeSteps prometheus.Histogram
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ValuationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "valuations_total",
			Help:      "Total option valuations by model",
		}, []string{"model"}),
		ValuationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "valuation_duration_seconds",
			Help:      "Valuation duration in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		CalibrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calibrations_total",
			Help:      "Total implied parameter calibrations",
		}),
		CalibrationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calibration_failures_total",
			Help:      "Calibrations that hit the iteration cap without converging",
		}),
		CalibrationIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "calibration_iterations",
			Help:      "Root-finder iterations per calibration",
			Buckets:   []float64{2, 4, 8, 16, 32, 64, 100},
		}),
		LatticeSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pricing",
			Subsystem: serviceName,
			Name:      "lattice_steps",
			Help:      "Binomial lattice step counts used per valuation",
			Buckets:   []float64{25, 51, 101, 201, 501, 853},
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.ValuationsTotal,
		m.ValuationDuration,
		m.CalibrationsTotal,
		m.CalibrationFailures,
		m.CalibrationIterations,
		m.LatticeSteps,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) {
	if path == "" {
		path = "/metrics"
	}
	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()
}
