package metrics

import (
	"expvar"
)

// Instruction pipeline metrics using expvar maps keyed by outcome,
// reason, format, or template id.
var (
	instructionsTotal = expvar.NewMap("flowchart_instructions_total")
	mergeRejections   = expvar.NewMap("flowchart_merge_rejections_total")
	rendersTotal      = expvar.NewMap("flowchart_renders_total")
	templateLoads     = expvar.NewMap("flowchart_template_loads_total")
)

// Session and service metrics.
var (
	sessionsActive    = new(expvar.Int)
	undosTotal        = new(expvar.Int)
	interpreterErrors = new(expvar.Int)
	renderFailures    = new(expvar.Int)
)

func init() {
	expvar.Publish("flowchart_sessions_active", sessionsActive)
	expvar.Publish("flowchart_undos_total", undosTotal)
	expvar.Publish("flowchart_interpreter_errors_total", interpreterErrors)
	expvar.Publish("flowchart_render_failures_total", renderFailures)
}

// Instruction helpers
func InstructionApplied()         { instructionsTotal.Add("applied", 1) }
func InstructionRejected()        { instructionsTotal.Add("rejected", 1) }
func InstructionFailed()          { instructionsTotal.Add("failed", 1) }
func MergeRejected(reason string) { mergeRejections.Add(reason, 1) }

// Render and template helpers
func RenderCompleted(format string) { rendersTotal.Add(format, 1) }
func RenderFailed()                 { renderFailures.Add(1) }
func TemplateLoaded(id string)      { templateLoads.Add(id, 1) }

// Session helpers
func SetActiveSessions(n int) { sessionsActive.Set(int64(n)) }
func UndoApplied()            { undosTotal.Add(1) }
func InterpreterError()       { interpreterErrors.Add(1) }
