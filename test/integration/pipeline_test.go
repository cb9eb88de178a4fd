//go:build integration
// +build integration

// Package integration contains integration tests for the flowchart
// pipeline: session service, merger, DOT codec, and the sqlite-backed
// session store working together.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionrepo "github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/repository/sqlite"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/adapters/templates"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/dto"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/app/usecases"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/delta"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/session"
	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/pkg/codec"
)

// Store records are compressed and encrypted the way a production
// deployment would configure them.
var encryptKey = []byte("0123456789abcdef0123456789abcdef")

const orderTemplate = `digraph flowchart {
    rankdir="TB";
    n1 [label="Receive Order", shape=ellipse];
    n2 [label="Check Stock", shape=diamond];

    n1 -> n2;
}
`

// openService builds a session service over a sqlite store at dbPath.
// Calling it twice with the same path simulates a process restart: the
// in-memory repository starts empty and sessions rehydrate from disk.
func openService(t *testing.T, dbPath, templateDir string) *usecases.SessionService {
	t.Helper()

	serializer := codec.NewSerializer(codec.Config{
		Codec:       codec.NewMsgPackCodec(),
		Compression: codec.CompressionZstd,
		EncryptKey:  encryptKey,
	})
	saver, err := sqlite.Open(context.Background(), dbPath, serializer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = saver.Close() })

	return usecases.NewSessionService(
		sessionrepo.NewInMemorySessionRepository(),
		usecases.NewMerger(),
		saver,
		templates.NewDir(templateDir),
	)
}

func TestPipeline_SessionSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "flowchart.db")
	ctx := context.Background()
	key := "user_example_com"

	svc := openService(t, dbPath, dir)
	_, err := svc.GetOrCreate(ctx, key, "")
	require.NoError(t, err)

	script := []struct {
		instruction string
		d           *delta.Delta
	}{
		{"start with receive order", &delta.Delta{Steps: []delta.Step{{Label: "Receive Order", Kind: flow.KindStart}}}},
		{"then check stock", &delta.Delta{Steps: []delta.Step{{Label: "Check Stock", Kind: flow.KindDecision}}}},
		{"if yes ship the item", &delta.Delta{Steps: []delta.Step{{Label: "Ship Item", Kind: flow.KindProcess, BranchLabel: "Yes"}}}},
	}
	for _, step := range script {
		_, err := svc.Apply(ctx, key, step.instruction, step.d)
		require.NoError(t, err)
	}

	before, err := svc.State(ctx, key)
	require.NoError(t, err)
	require.Len(t, before.History, 3)
	require.Contains(t, before.Text, `n2 -> n3 [label="Yes"];`)

	// A fresh service over the same database is a restarted process.
	restarted := openService(t, dbPath, dir)
	after, err := restarted.GetOrCreate(ctx, key, "")
	require.NoError(t, err)

	assert.Equal(t, before.Text, after.Text)
	assert.Equal(t, before.History, after.History)

	// The undo slot lives in memory only and does not survive a restart.
	_, err = restarted.Undo(ctx, key)
	assert.ErrorIs(t, err, dto.ErrNothingToUndo)

	// New instructions keep flowing on the rehydrated graph. The attach
	// hint routes the branch back to the decision node.
	st, err := restarted.Apply(ctx, key, "if no restock first", &delta.Delta{
		Steps:    []delta.Step{{Label: "Restock", Kind: flow.KindProcess, BranchLabel: "No"}},
		AttachTo: "Check Stock",
	})
	require.NoError(t, err)
	assert.Contains(t, st.Text, `n4 [label="Restock", shape=box];`)
	assert.Contains(t, st.Text, `n2 -> n4 [label="No"];`)
	assert.Len(t, st.History, 4)
}

func TestPipeline_TemplateCloneDelete(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "flowchart.db")
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "order_fulfillment.dot"), []byte(orderTemplate), 0o644))

	ctx := context.Background()
	svc := openService(t, dbPath, tmplDir)

	st, err := svc.GetOrCreate(ctx, "alice_example_com", "order_fulfillment")
	require.NoError(t, err)
	assert.Equal(t, "order_fulfillment", st.TemplateName)
	assert.Contains(t, st.Text, `n2 [label="Check Stock", shape=diamond];`)

	_, err = svc.Apply(ctx, "alice_example_com", "if yes ship the item", &delta.Delta{
		Steps: []delta.Step{{Label: "Ship Item", Kind: flow.KindProcess, BranchLabel: "Yes"}},
	})
	require.NoError(t, err)

	cloned, err := svc.Clone(ctx, "alice_example_com", "bob_example_com")
	require.NoError(t, err)
	assert.Equal(t, "bob_example_com", cloned.Key)
	assert.Equal(t, []string{"if yes ship the item"}, cloned.History)
	assert.Equal(t, "order_fulfillment", cloned.TemplateName)

	// The copies evolve independently.
	_, err = svc.Apply(ctx, "bob_example_com", "if no cancel the order", &delta.Delta{
		Steps:    []delta.Step{{Label: "Cancel Order", Kind: flow.KindEnd, BranchLabel: "No"}},
		AttachTo: "Check Stock",
	})
	require.NoError(t, err)

	alice, err := svc.State(ctx, "alice_example_com")
	require.NoError(t, err)
	assert.NotContains(t, alice.Text, "Cancel Order")

	require.NoError(t, svc.Delete(ctx, "alice_example_com"))
	_, err = svc.State(ctx, "alice_example_com")
	assert.ErrorIs(t, err, session.ErrNotFound)

	// After a restart the clone is still there and the deleted session
	// is truly gone: recreating it starts from scratch.
	restarted := openService(t, dbPath, tmplDir)

	bob, err := restarted.GetOrCreate(ctx, "bob_example_com", "")
	require.NoError(t, err)
	assert.Contains(t, bob.Text, "Cancel Order")
	assert.Len(t, bob.History, 2)

	fresh, err := restarted.GetOrCreate(ctx, "alice_example_com", "")
	require.NoError(t, err)
	assert.Empty(t, fresh.History)
	assert.NotContains(t, fresh.Text, "Receive Order")
}
