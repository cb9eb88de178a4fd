// Package httpapi exposes the flowchart pipeline over HTTP. Routes and
// payloads follow the voice front-end contract: JSON in, a session
// envelope out, `{"error": ...}` bodies on failure.
package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/usecases"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/infrastructure/metrics"
)

// ListTemplates returns the available starter flowcharts as a bare
// array, which is what the template picker consumes.
func ListTemplates(src usecases.TemplateSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if src == nil {
			c.JSON(http.StatusOK, []dto.TemplateInfo{})
			return
		}
		infos, err := src.List(c.Request.Context())
		if err != nil {
			slog.Error("failed to list templates", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list templates"})
			return
		}
		c.JSON(http.StatusOK, infos)
	}
}

// RenderOptions couples the renderer with the server's default image
// format. When DefaultFormat is empty, responses carry an image only
// for requests that name a render_format themselves.
type RenderOptions struct {
	Renderer      usecases.Renderer
	DefaultFormat string
}

// CreateFlowchart opens (or returns) the user's session. An optional
// template seeds a fresh session; an optional prompt is interpreted and
// applied as the first instruction.
func CreateFlowchart(svc *usecases.SessionService, interp usecases.Interpreter, rend RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		ctx := c.Request.Context()
		key := session.KeyFromEmail(req.UserEmail)
		st, err := svc.GetOrCreate(ctx, key, req.Template)
		if err != nil {
			slog.Error("failed to open session", "session", key, "error", err)
			respondError(c, err)
			return
		}

		message := "Flowchart session ready"
		if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
			st, err = interpretAndApply(c, svc, interp, key, prompt, st)
			if err != nil {
				return
			}
			message = "Flowchart created"
		}

		resp := dto.NewSessionResponse("success", st)
		resp.Message = message
		if !maybeRender(c, rend, st, req.RenderFormat, &resp) {
			return
		}
		updateActiveSessions(c, svc)
		c.JSON(http.StatusOK, resp)
	}
}

// AddStep interprets the next spoken instruction and merges it into the
// user's existing flowchart.
func AddStep(svc *usecases.SessionService, interp usecases.Interpreter, rend RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.AddStepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		ctx := c.Request.Context()
		key := session.KeyFromEmail(req.UserEmail)
		st, err := svc.State(ctx, key)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no active flowchart session, create one first"})
				return
			}
			respondError(c, err)
			return
		}

		st, err = interpretAndApply(c, svc, interp, key, req.Prompt, st)
		if err != nil {
			return
		}

		resp := dto.NewSessionResponse("success", st)
		resp.Message = "Step added"
		if !maybeRender(c, rend, st, req.RenderFormat, &resp) {
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ApplyDelta merges a client-supplied delta without going through the
// interpreter. Front-ends that parse instructions locally use this.
func ApplyDelta(svc *usecases.SessionService, rend RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ApplyDeltaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		d, err := req.Delta.Delta()
		if err != nil {
			recordInstructionError(err)
			respondError(c, err)
			return
		}

		key := session.KeyFromEmail(req.UserEmail)
		st, err := svc.Apply(c.Request.Context(), key, req.Instruction, d)
		if err != nil {
			recordInstructionError(err)
			slog.Warn("delta rejected", "session", key, "error", err)
			respondError(c, err)
			return
		}
		metrics.InstructionApplied()

		resp := dto.NewSessionResponse("success", st)
		resp.Message = "Delta applied"
		if !maybeRender(c, rend, st, req.RenderFormat, &resp) {
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// LoadTemplate replaces the session's flowchart with a named template,
// creating the session when it does not exist yet.
func LoadTemplate(svc *usecases.SessionService, rend RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LoadTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		key := session.KeyFromEmail(req.UserEmail)
		st, err := svc.LoadTemplate(c.Request.Context(), key, req.TemplateID)
		if err != nil {
			slog.Warn("template load failed", "session", key, "template", req.TemplateID, "error", err)
			respondError(c, err)
			return
		}
		metrics.TemplateLoaded(req.TemplateID)

		resp := dto.NewSessionResponse("success", st)
		resp.Message = "Template loaded"
		if !maybeRender(c, rend, st, req.RenderFormat, &resp) {
			return
		}
		updateActiveSessions(c, svc)
		c.JSON(http.StatusOK, resp)
	}
}

// Undo rolls the session back to the graph before the last change.
func Undo(svc *usecases.SessionService, rend RenderOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.UndoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		key := session.KeyFromEmail(req.UserEmail)
		st, err := svc.Undo(c.Request.Context(), key)
		if err != nil {
			respondError(c, err)
			return
		}
		metrics.UndoApplied()

		resp := dto.NewSessionResponse("success", st)
		resp.Message = "Reverted last step"
		if !maybeRender(c, rend, st, req.RenderFormat, &resp) {
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CloneSession copies one user's flowchart to another user.
func CloneSession(svc *usecases.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CloneSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		srcKey := session.KeyFromEmail(req.UserEmail)
		dstKey := session.KeyFromEmail(req.TargetEmail)
		st, err := svc.Clone(c.Request.Context(), srcKey, dstKey)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := dto.NewSessionResponse("success", st)
		resp.Message = "Flowchart cloned"
		updateActiveSessions(c, svc)
		c.JSON(http.StatusOK, resp)
	}
}

// GetSession returns a snapshot of one session by its key.
func GetSession(svc *usecases.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.State(c.Request.Context(), c.Param("key"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSessionResponse("success", st))
	}
}

// ListSessions snapshots every live session, for diagnostics.
func ListSessions(svc *usecases.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		states, err := svc.Sessions(c.Request.Context())
		if err != nil {
			slog.Error("failed to list sessions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": states, "count": len(states)})
	}
}

// DeleteSession evicts a session from memory and durable storage.
func DeleteSession(svc *usecases.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("key")
		if err := svc.Delete(c.Request.Context(), key); err != nil {
			respondError(c, err)
			return
		}
		slog.Info("session deleted", "session", key)
		updateActiveSessions(c, svc)
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_key": key})
	}
}

// interpretAndApply runs the instruction through the interpreter and
// merges the result. The interpreter call happens before the session
// lock is taken, so slow model calls never block other users' requests
// for the same session store. On failure the response has been written
// and a non-nil error is returned.
func interpretAndApply(c *gin.Context, svc *usecases.SessionService, interp usecases.Interpreter, key, prompt string, st *dto.SessionState) (*dto.SessionState, error) {
	if interp == nil {
		err := fmt.Errorf("%w: no interpreter configured", dto.ErrInterpreterFailed)
		respondError(c, err)
		return nil, err
	}

	ctx := c.Request.Context()
	d, err := interp.Interpret(ctx, prompt, st.Graph)
	if err != nil {
		metrics.InterpreterError()
		slog.Error("interpreter call failed", "session", key, "error", err)
		err = fmt.Errorf("%w: %v", dto.ErrInterpreterFailed, err)
		respondError(c, err)
		return nil, err
	}

	next, err := svc.Apply(ctx, key, prompt, d)
	if err != nil {
		recordInstructionError(err)
		slog.Warn("instruction rejected", "session", key, "error", err)
		respondError(c, err)
		return nil, err
	}
	metrics.InstructionApplied()
	return next, nil
}

// maybeRender draws the graph when the request or the server default
// asked for an image and records the output filename on the response.
// It reports false after writing an error response.
func maybeRender(c *gin.Context, rend RenderOptions, st *dto.SessionState, format string, resp *dto.SessionResponse) bool {
	if format == "" {
		format = rend.DefaultFormat
	}
	if format == "" {
		return true
	}
	if rend.Renderer == nil {
		respondError(c, fmt.Errorf("%w: no renderer configured", dto.ErrRenderFailed))
		return false
	}
	name, err := rend.Renderer.Render(c.Request.Context(), st.Graph, format)
	if err != nil {
		metrics.RenderFailed()
		slog.Error("render failed", "session", st.Key, "format", format, "error", err)
		respondError(c, err)
		return false
	}
	metrics.RenderCompleted(format)
	resp.OutputFilename = name
	return true
}

func updateActiveSessions(c *gin.Context, svc *usecases.SessionService) {
	if n, err := svc.Count(c.Request.Context()); err == nil {
		metrics.SetActiveSessions(n)
	}
}
