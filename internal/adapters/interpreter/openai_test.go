package interpreter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

// fakeCompletions serves a canned chat completion and captures the
// request for prompt assertions.
func fakeCompletions(t *testing.T, content string, status int) (*httptest.Server, *openai.ChatCompletionRequest) {
	t.Helper()
	captured := &openai.ChatCompletionRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		if status != http.StatusOK {
			http.Error(w, "model overloaded", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestInterpreter(srv *httptest.Server) *OpenAI {
	return NewOpenAI(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
	})
}

func orderGraph(t *testing.T) *flow.Graph {
	t.Helper()
	g := flow.NewGraph()
	_, err := g.AddNode("Receive Order", flow.KindStart)
	require.NoError(t, err)
	return g
}

func TestOpenAI_Interpret(t *testing.T) {
	srv, captured := fakeCompletions(t, `{"new_steps":[{"label":"Check Stock","kind":"decision"}],"attach_to":"Receive Order"}`, http.StatusOK)
	o := newTestInterpreter(srv)

	d, err := o.Interpret(context.Background(), "then check the stock", orderGraph(t))
	require.NoError(t, err)
	require.Len(t, d.Steps, 1)
	assert.Equal(t, "Check Stock", d.Steps[0].Label)
	assert.Equal(t, flow.KindDecision, d.Steps[0].Kind)
	assert.Equal(t, "Receive Order", d.AttachTo)

	// The request carries the graph, the frontier, and the instruction.
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, captured.Messages[0].Role)
	user := captured.Messages[1].Content
	assert.Contains(t, user, `n1 [label="Receive Order", shape=ellipse];`)
	assert.Contains(t, user, `"Receive Order" (n1)`)
	assert.Contains(t, user, `"then check the stock"`)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, captured.ResponseFormat.Type)
}

func TestOpenAI_Interpret_EmptyGraph(t *testing.T) {
	srv, captured := fakeCompletions(t, `{"new_steps":[{"label":"Receive Order","kind":"start"}]}`, http.StatusOK)
	o := newTestInterpreter(srv)

	d, err := o.Interpret(context.Background(), "start with receive order", flow.NewGraph())
	require.NoError(t, err)
	require.Len(t, d.Steps, 1)
	assert.Contains(t, captured.Messages[1].Content, "currently empty")
}

func TestOpenAI_Interpret_FencedResponse(t *testing.T) {
	srv, _ := fakeCompletions(t, "```json\n{\"new_steps\":[{\"label\":\"Ship Item\",\"kind\":\"process\"}]}\n```", http.StatusOK)
	o := newTestInterpreter(srv)

	d, err := o.Interpret(context.Background(), "then ship the item", orderGraph(t))
	require.NoError(t, err)
	require.Len(t, d.Steps, 1)
	assert.Equal(t, "Ship Item", d.Steps[0].Label)
}

func TestOpenAI_Interpret_UnusableDelta(t *testing.T) {
	srv, _ := fakeCompletions(t, `{"new_steps":[]}`, http.StatusOK)
	o := newTestInterpreter(srv)

	_, err := o.Interpret(context.Background(), "do nothing", orderGraph(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, delta.ErrEmptyDelta)
	assert.True(t, delta.IsSchemaError(err))
}

func TestOpenAI_Interpret_ServerError(t *testing.T) {
	srv, _ := fakeCompletions(t, "", http.StatusInternalServerError)
	o := newTestInterpreter(srv)

	_, err := o.Interpret(context.Background(), "then ship the item", orderGraph(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chat completion")
}

func TestParseDelta(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"bare object", `{"new_steps":[{"label":"A","kind":"process"}]}`, false},
		{"json fence", "```json\n{\"new_steps\":[{\"label\":\"A\",\"kind\":\"process\"}]}\n```", false},
		{"plain fence", "```\n{\"new_steps\":[{\"label\":\"A\",\"kind\":\"process\"}]}\n```", false},
		{"surrounding whitespace", "\n\n  {\"new_steps\":[{\"label\":\"A\",\"kind\":\"process\"}]}  \n", false},
		{"prose instead of json", "Sure! Here is your flowchart.", true},
		{"unknown kind", `{"new_steps":[{"label":"A","kind":"blob"}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDelta(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, d.Steps, 1)
			assert.Equal(t, "A", d.Steps[0].Label)
		})
	}
}
