package dns

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfwlist_sync_total",
			Help: "Total rule syncs by result",
		},
		[]string{"result"},
	)
	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gfwlist_sync_duration_seconds",
			Help:    "Duration of a full rule sync in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gfwlist_fetch_duration_seconds",
			Help:    "Reference document download duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"document"},
	)
	ruleOutcomes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gfwlist_last_sync_rules",
			Help: "Rules of the last successful sync by outcome",
		},
		[]string{"outcome"},
	)
	domainsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gfwlist_domains",
			Help: "Registrable domains emitted by the last successful sync",
		},
	)
	suffixGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gfwlist_suffix_table_entries",
			Help: "Suffix table size of the last successful sync",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(syncCounter, syncDuration, fetchDuration, ruleOutcomes, domainsGauge, suffixGauge)
}

func observeResult(res *Result, table SuffixTable) {
	ruleOutcomes.Reset()
	ruleOutcomes.WithLabelValues("rewritten").Set(float64(res.Stats.Rewritten))
	for reason, n := range res.Stats.Skipped {
		ruleOutcomes.WithLabelValues(string(reason)).Set(float64(n))
	}
	domainsGauge.Set(float64(res.Len()))

	suffixGauge.Reset()
	suffixGauge.WithLabelValues(string(table.Kind())).Set(float64(table.Len()))
}

// WriteMetricsTextfile 将当前指标写入 textfile collector 文件
func WriteMetricsTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
