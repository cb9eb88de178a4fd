package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepPayload struct {
	Label       string `json:"label" validate:"required,min=1,max=200"`
	Kind        string `json:"kind" validate:"required,step_kind"`
	BranchLabel string `json:"branch_label,omitempty" validate:"omitempty,min=1"`
}

type requestPayload struct {
	UserEmail string        `json:"user_email" validate:"required,email"`
	Steps     []stepPayload `json:"new_steps" validate:"required,min=1,dive"`
	AttachTo  string        `json:"attach_to,omitempty"`
}

func TestStruct_Valid(t *testing.T) {
	req := requestPayload{
		UserEmail: "user@example.com",
		Steps: []stepPayload{
			{Label: "Receive Order", Kind: "start"},
			{Label: "In Stock", Kind: "process", BranchLabel: "Yes"},
		},
	}
	assert.NoError(t, Struct(req))
}

func TestStruct_FieldNamesFollowJSONTags(t *testing.T) {
	err := Struct(requestPayload{UserEmail: "not-an-email"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "user_email", verrs[0].Field)
	assert.Equal(t, "must be a valid email address", verrs[0].Message)
	assert.Equal(t, "new_steps", verrs[1].Field)
	assert.Equal(t, "field is required", verrs[1].Message)
}

func TestStepKind(t *testing.T) {
	cases := []struct {
		kind string
		ok   bool
	}{
		{"start", true},
		{"process", true},
		{"decision", true},
		{"end", true},
		{"Process", true}, // normalized later, accepted here
		{"DECISION", true},
		{"subroutine", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			err := Validate.Var(tc.kind, "required,step_kind")
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSessionKey(t *testing.T) {
	cases := []struct {
		key string
		ok  bool
	}{
		{"user_example_com", true},
		{"User-123", true},
		{"user@example.com", false},
		{"user example", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			err := Validate.Var(tc.key, "session_key")
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormat_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, Format(plain))
	assert.Nil(t, Format(nil))
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "label", Value: "", Message: "field is required"},
		{Field: "kind", Value: "widget", Message: "must be a step kind (start, process, decision, end)"},
	}
	msg := errs.Error()
	assert.Contains(t, msg, "validation error on field 'label'")
	assert.Contains(t, msg, "validation error on field 'kind'")
	assert.Contains(t, msg, "; ")

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
}
