package dto

import "errors"

// Pipeline errors
var (
	ErrEmptyInstruction  = errors.New("instruction is required")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrInterpreterFailed = errors.New("instruction interpretation failed")
	ErrRenderFailed      = errors.New("graph rendering failed")
)
