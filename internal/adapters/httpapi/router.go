package httpapi

import (
	"expvar"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/usecases"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/validation"
)

// Deps carries the wired collaborators for the HTTP API. Interpreter,
// Templates, and Renderer may be nil; the affected endpoints then
// respond with a clear error (or an empty list) instead of failing at
// startup.
type Deps struct {
	Sessions    *usecases.SessionService
	Interpreter usecases.Interpreter
	Templates   usecases.TemplateSource
	Renderer    usecases.Renderer

	// DefaultRenderFormat, when set, renders an image on every
	// session-mutating response even when the request named no format.
	DefaultRenderFormat string

	// OutputDir, when set, is served read-only under /outputs.
	OutputDir string
}

var bindingRulesOnce sync.Once

// registerBindingRules installs the flowchart validation rules on gin's
// binding engine so request tags like step_kind work.
func registerBindingRules() {
	bindingRulesOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := validation.RegisterRules(v); err != nil {
				panic(err)
			}
		}
	})
}

// NewRouter builds the gin engine with every flowchart route attached.
func NewRouter(deps Deps) *gin.Engine {
	registerBindingRules()

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Flowchart server is running. See /healthz, /flowchart/templates, /metrics, /debug/vars\n")
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", promMetricsHandler)
	router.GET("/debug/vars", gin.WrapH(expvar.Handler()))

	rend := RenderOptions{Renderer: deps.Renderer, DefaultFormat: deps.DefaultRenderFormat}

	fc := router.Group("/flowchart")
	{
		fc.GET("/templates", ListTemplates(deps.Templates))
		fc.POST("/create", CreateFlowchart(deps.Sessions, deps.Interpreter, rend))
		fc.POST("/add", AddStep(deps.Sessions, deps.Interpreter, rend))
		fc.POST("/apply_delta", ApplyDelta(deps.Sessions, rend))
		fc.POST("/load_template", LoadTemplate(deps.Sessions, rend))
		fc.POST("/undo", Undo(deps.Sessions, rend))
		fc.POST("/clone", CloneSession(deps.Sessions))
		fc.GET("/sessions", ListSessions(deps.Sessions))
		fc.GET("/session/:key", GetSession(deps.Sessions))
		fc.DELETE("/session/:key", DeleteSession(deps.Sessions))
	}

	if deps.OutputDir != "" {
		router.Static("/outputs", deps.OutputDir)
	}

	return router
}
