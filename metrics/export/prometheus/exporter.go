package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// PrometheusExporter renders session metrics in the Prometheus text
// exposition format.
type PrometheusExporter struct {
	source internaldefs.Source
}

// NewPrometheusExporter reads from engine.
func NewPrometheusExporter(engine *goSession.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource reads from any snapshot source.
func NewPrometheusExporterFromSource(source internaldefs.Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render on GET. A scrape with nothing to report gets 204.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := p.Render()
		if body == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	})
}

// Render returns "" when there is nothing to report: metrics disabled and
// every engine-level counter at zero.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	engineValues := make([]uint64, len(internaldefs.EngineCounterDefs))
	var engineTotal uint64
	for i, def := range internaldefs.EngineCounterDefs {
		engineValues[i] = def.Read(p.source)
		engineTotal += engineValues[i]
	}
	metricsOn := len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0
	if !metricsOn && engineTotal == 0 {
		return ""
	}

	var x exposition
	x.b.Grow(4096)

	if metricsOn {
		for _, def := range internaldefs.CounterDefs {
			x.family(def.Name, def.Help, "counter")
			x.sample(def.Name, "", snapshot.Counters[def.ID])
		}
		for _, def := range internaldefs.HistogramDefs {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
			x.family(def.Name, def.Help, "histogram")
			for i, le := range internaldefs.HistogramBounds {
				x.sample(def.Name+"_bucket", `le="`+le+`"`, cumulative[i])
			}
			x.sample(def.Name+"_count", "", cumulative[len(cumulative)-1])
			// Buckets only; the engine keeps no running sum.
			x.sample(def.Name+"_sum", "", 0)
		}
	}

	for i, def := range internaldefs.EngineCounterDefs {
		x.family(def.Name, def.Help, "counter")
		x.sample(def.Name, "", engineValues[i])
	}

	return x.b.String()
}

type exposition struct {
	b strings.Builder
}

func (x *exposition) family(name, help, kind string) {
	x.b.WriteString("# HELP ")
	x.b.WriteString(name)
	x.b.WriteByte(' ')
	x.b.WriteString(escapeHelp(help))
	x.b.WriteString("\n# TYPE ")
	x.b.WriteString(name)
	x.b.WriteByte(' ')
	x.b.WriteString(kind)
	x.b.WriteByte('\n')
}

func (x *exposition) sample(name, labels string, value uint64) {
	x.b.WriteString(name)
	if labels != "" {
		x.b.WriteByte('{')
		x.b.WriteString(labels)
		x.b.WriteByte('}')
	}
	x.b.WriteByte(' ')
	x.b.WriteString(strconv.FormatUint(value, 10))
	x.b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}
