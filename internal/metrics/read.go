package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}

func histogramCount(h prometheus.Histogram) uint64 {
	var out dto.Metric
	if err := h.Write(&out); err != nil {
		return 0
	}
	return out.GetHistogram().GetSampleCount()
}
