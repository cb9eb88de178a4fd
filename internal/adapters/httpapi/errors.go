package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/infrastructure/metrics"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/validation"
)

// statusFor maps pipeline errors onto HTTP status codes. Anything
// unrecognized is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound) || errors.Is(err, dto.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyExists) || errors.Is(err, dto.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, dto.ErrInterpreterFailed):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrInvalidKey),
		errors.Is(err, dto.ErrEmptyInstruction),
		delta.IsSchemaError(err):
		return http.StatusBadRequest
	case flow.IsIntegrityError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body the voice front-end expects.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// respondBindError writes a 400 for a failed JSON bind, with per-field
// details when gin's validator produced them.
func respondBindError(c *gin.Context, err error) {
	var verrs validation.ValidationErrors
	if errors.As(validation.Format(err), &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": verrs})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// recordInstructionError classifies a failed instruction for the
// counters: schema and integrity problems are rejections, everything
// else is a failure.
func recordInstructionError(err error) {
	switch {
	case flow.IsIntegrityError(err):
		metrics.InstructionRejected()
		metrics.MergeRejected(mergeReason(err))
	case delta.IsSchemaError(err):
		metrics.InstructionRejected()
		metrics.MergeRejected("schema")
	default:
		metrics.InstructionFailed()
	}
}

func mergeReason(err error) string {
	switch {
	case errors.Is(err, flow.ErrInvalidBranch):
		return "invalid_branch"
	case errors.Is(err, flow.ErrDuplicateBranchLabel):
		return "duplicate_branch_label"
	case errors.Is(err, flow.ErrBranchLabelRequired):
		return "branch_label_required"
	case errors.Is(err, flow.ErrMultipleEntries):
		return "multiple_entries"
	case errors.Is(err, flow.ErrNoEntry):
		return "no_entry"
	default:
		return "integrity"
	}
}
