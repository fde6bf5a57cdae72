package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	menugate "github.com/mostafamohamed123hf/menugate"
	"github.com/mostafamohamed123hf/menugate/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() menugate.MetricsSnapshot
}

// PrometheusExporter renders gateway metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from the given
// [menugate.Gateway].
func NewPrometheusExporter(gateway *menugate.Gateway) *PrometheusExporter {
	return &PrometheusExporter{source: gateway}
}

// NewPrometheusExporterFromSource creates an exporter from a custom source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves the rendered metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current counters in text exposition format.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	if len(snapshot.Counters) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}
