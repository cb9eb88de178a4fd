package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abishek257/Voice-Powered-Flowchart-Generator/internal/core/flow"
)

func TestKeyFromEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{name: "plain address", email: "user@example.com", want: "user_example_com"},
		{name: "dots and plus", email: "first.last+tag@mail.co", want: "first_last_tag_mail_co"},
		{name: "already safe", email: "user_42-a", want: "user_42-a"},
		{name: "surrounding whitespace", email: "  user@example.com ", want: "user_example_com"},
		{name: "empty", email: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyFromEmail(tt.email))
		})
	}
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("user_example_com"))
	assert.True(t, ValidKey("abc-123"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey("user@example.com"))
	assert.False(t, ValidKey("two words"))
}

func TestNew(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		s, err := New("user_example_com")
		require.NoError(t, err)
		assert.Equal(t, "user_example_com", s.Key)
		assert.NotNil(t, s.Graph)
		assert.Equal(t, 0, s.Graph.Len())
		assert.False(t, s.CreatedAt.IsZero())
		assert.NoError(t, s.Validate())
	})

	t.Run("invalid key", func(t *testing.T) {
		_, err := New("user@example.com")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestSession_Validate(t *testing.T) {
	s, err := New("user_example_com")
	require.NoError(t, err)

	s.Graph = nil
	assert.ErrorIs(t, s.Validate(), ErrNilGraph)

	s.Graph = flow.NewGraph()
	s.Key = "bad key"
	assert.ErrorIs(t, s.Validate(), ErrInvalidKey)
}

func TestSession_Record(t *testing.T) {
	s, err := New("user_example_com")
	require.NoError(t, err)
	s.History = []string{"start with receive order"}
	s.TemplateName = "order_fulfillment"

	r := s.Record("digraph flowchart {\n}\n")
	require.NoError(t, r.Validate())
	assert.Equal(t, s.Key, r.Key)
	assert.Equal(t, s.TemplateName, r.TemplateName)

	// The record history is a copy, not an alias.
	s.History = append(s.History, "then check stock")
	assert.Len(t, r.History, 1)
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  *Record
		wantErr error
	}{
		{
			name:    "valid",
			record:  &Record{Key: "user_example_com", GraphText: "digraph flowchart {\n}\n"},
			wantErr: nil,
		},
		{
			name:    "bad key",
			record:  &Record{Key: "user@example.com", GraphText: "digraph flowchart {\n}\n"},
			wantErr: ErrInvalidKey,
		},
		{
			name:    "empty graph text",
			record:  &Record{Key: "user_example_com"},
			wantErr: ErrEmptyGraphText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	since := time.Now()
	assert.NoError(t, (&Filter{KeyPrefix: "user", UpdatedSince: &since, Limit: 10}).Validate())
	assert.ErrorIs(t, (&Filter{Limit: -1}).Validate(), ErrInvalidLimit)
	assert.ErrorIs(t, (&Filter{Offset: -5}).Validate(), ErrInvalidOffset)
}
