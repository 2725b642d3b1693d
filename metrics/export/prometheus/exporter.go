package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ufacm/checkin"
	"github.com/ufacm/checkin/metrics/export/internaldefs"
)

// Source is what the exporter reads on every scrape. [*checkin.Engine]
// satisfies it.
type Source interface {
	MetricsSnapshot() checkin.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders engine metrics in the Prometheus text format.
type Exporter struct {
	source Source
}

func New(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves [Exporter.Render].
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current exposition. It is empty when metrics are
// disabled and nothing was dropped.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.Counters {
		writeCounter(&b, def, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.Histograms {
		if raw, ok := snapshot.Histograms[def.ID]; ok {
			writeHistogram(&b, def, internaldefs.Cumulative(raw))
		}
	}
	writeCounter(&b, internaldefs.AuditDropped, dropped)

	return b.String()
}

func writeHeader(b *strings.Builder, def internaldefs.Def, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(def.Name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(def.Help))
	b.WriteString("\n# TYPE ")
	b.WriteString(def.Name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, def internaldefs.Def, value uint64) {
	writeHeader(b, def, "counter")
	b.WriteString(def.Name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, def internaldefs.Def, cumulative [8]uint64) {
	writeHeader(b, def, "histogram")
	for i, le := range internaldefs.Bounds {
		b.WriteString(def.Name)
		b.WriteString(`_bucket{le="`)
		b.WriteString(le)
		b.WriteString(`"} `)
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	b.WriteString(def.Name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')

	// The engine keeps bucket counts only.
	b.WriteString(def.Name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	return strings.ReplaceAll(help, "\n", "\\n")
}
