package httpapi

import (
	"expvar"
	"fmt"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// promMetricsHandler renders the expvar-published flowchart metrics in
// Prometheus text exposition format, without pulling in a client
// library. Unknown numeric expvars fall back to untyped gauges.
func promMetricsHandler(c *gin.Context) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	type meta struct {
		typ, help string
		isMap     bool
		label     string
	}
	metas := map[string]meta{
		"flowchart_instructions_total":       {typ: "counter", help: "Instructions by outcome", isMap: true, label: "result"},
		"flowchart_merge_rejections_total":   {typ: "counter", help: "Rejected merges by reason", isMap: true, label: "reason"},
		"flowchart_renders_total":            {typ: "counter", help: "Rendered images by format", isMap: true, label: "format"},
		"flowchart_template_loads_total":     {typ: "counter", help: "Template loads by template id", isMap: true, label: "template"},
		"flowchart_sessions_active":          {typ: "gauge", help: "Live flowchart sessions"},
		"flowchart_undos_total":              {typ: "counter", help: "Undo operations applied"},
		"flowchart_interpreter_errors_total": {typ: "counter", help: "Failed interpreter calls"},
		"flowchart_render_failures_total":    {typ: "counter", help: "Failed render attempts"},
	}

	varNames := make([]string, 0, 64)
	expvar.Do(func(kv expvar.KeyValue) {
		varNames = append(varNames, kv.Key)
	})
	sort.Strings(varNames)

	printed := make(map[string]bool)
	writeHeader := func(name string, m meta) {
		if printed[name] {
			return
		}
		fmt.Fprintf(w, "# HELP %s %s\n", name, sanitizeHelp(m.help))
		fmt.Fprintf(w, "# TYPE %s %s\n", name, m.typ)
		printed[name] = true
	}

	for _, name := range varNames {
		v := expvar.Get(name)
		m, known := metas[name]
		if !known {
			if iv, ok := v.(*expvar.Int); ok {
				fmt.Fprintf(w, "# TYPE %s gauge\n", name)
				fmt.Fprintf(w, "%s %s\n", name, iv.String())
			}
			continue
		}
		writeHeader(name, m)
		if m.isMap {
			mp, ok := v.(*expvar.Map)
			if !ok {
				continue
			}
			sub := make([]expvar.KeyValue, 0, 8)
			mp.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
			sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
			for _, kv := range sub {
				fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
			}
			continue
		}
		fmt.Fprintf(w, "%s %s\n", name, v.String())
	}
}

// sanitizeHelp keeps HELP lines single-line per the Prometheus format.
func sanitizeHelp(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// escapeLabel escapes backslash, double-quote, and newline per the
// Prometheus format.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
