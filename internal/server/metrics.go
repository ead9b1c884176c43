package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ygmpkk/pointst/core"
	"github.com/ygmpkk/pointst/internal/log"
)

var (
	metricDescriptions = map[string]*prometheus.Desc{
		/*
			these metrics are taken from basicStats() by accessing the map
			and directly exporting the value found
		*/
		"num_points":                 prometheus.NewDesc("pointst_points", "Total number of points", nil, nil),
		"pid":                        prometheus.NewDesc("pointst_pid", "", nil, nil),
		"heap_size":                  prometheus.NewDesc("pointst_heap_size_bytes", "", nil, nil),
		"heap_released":              prometheus.NewDesc("pointst_memory_reap_released_bytes", "", nil, nil),
		"avg_item_size":              prometheus.NewDesc("pointst_avg_item_size_bytes", "", nil, nil),
		"pointer_size":               prometheus.NewDesc("pointst_pointer_size_bytes", "", nil, nil),
		"cpus":                       prometheus.NewDesc("pointst_num_cpus", "", nil, nil),
		"connected_clients":          prometheus.NewDesc("pointst_connected_clients", "", nil, nil),
		"total_connections_received": prometheus.NewDesc("pointst_connections_received_total", "", nil, nil),
		"total_commands_processed":   prometheus.NewDesc("pointst_commands_processed_total", "", nil, nil),

		/*
			these metrics are NOT taken from basicStats() but are calculated
			independently
		*/
		"height":      prometheus.NewDesc("pointst_tree_height", "Number of levels in the 2-d tree", nil, nil),
		"rebuilds":    prometheus.NewDesc("pointst_rebuilds_total", "Number of FLUSHDB rebuilds", nil, nil),
		"server_info": prometheus.NewDesc("pointst_server_info", "Server info", []string{"id", "version", "index"}, nil),
		"start_time":  prometheus.NewDesc("pointst_start_time_seconds", "", nil, nil),
	}

	cmdDurations = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "pointst_cmd_duration_seconds",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
	}, []string{"cmd"},
	)
)

// MetricsIndexHandler serves a small landing page.
func (s *Server) MetricsIndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`<html><head>
<title>pointst ` + core.Version + `</title></head>
<body><h1>pointst ` + core.Version + `</h1>
<p><a href='/metrics'>Metrics</a></p>
</body></html>`))
}

// MetricsHandler serves the prometheus metrics.
func (s *Server) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		collectors.NewBuildInfoCollector(),
		cmdDurations,
		s,
	)

	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// MetricsRouter routes "/" and "/metrics".
func (s *Server) MetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.MetricsIndexHandler).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.MetricsHandler).Methods(http.MethodGet)
	return r
}

// ServeMetrics serves the metrics router on addr until it fails.
func (s *Server) ServeMetrics(addr string) error {
	log.Infof("Metrics available at http://%s/metrics", addr)
	return http.ListenAndServe(addr, s.MetricsRouter())
}

// Describe implements prometheus.Collector.
func (s *Server) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range metricDescriptions {
		ch <- desc
	}
}

// Collect implements prometheus.Collector.
func (s *Server) Collect(ch chan<- prometheus.Metric) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := make(map[string]interface{})
	s.basicStats(m)
	s.tableStats(m)

	for metric, descr := range metricDescriptions {
		switch val := m[metric].(type) {
		case int:
			ch <- prometheus.MustNewConstMetric(descr, prometheus.GaugeValue, float64(val))
		case int64:
			ch <- prometheus.MustNewConstMetric(descr, prometheus.GaugeValue, float64(val))
		case uint64:
			ch <- prometheus.MustNewConstMetric(descr, prometheus.GaugeValue, float64(val))
		case float64:
			ch <- prometheus.MustNewConstMetric(descr, prometheus.GaugeValue, val)
		}
	}

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["server_info"],
		prometheus.GaugeValue, 1.0,
		s.config.serverID(), core.Version, s.kind.String())

	ch <- prometheus.MustNewConstMetric(
		metricDescriptions["start_time"],
		prometheus.GaugeValue, float64(s.started.Unix()))
}
