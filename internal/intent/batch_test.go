package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_ResolveOrder(t *testing.T) {
	three := []Intent{{Kind: OpenApp}, {Kind: Screenshot}, {Kind: MediaPlay}}

	tests := []struct {
		name  string
		order []int
		want  []int
	}{
		{"explicit permutation", []int{2, 0, 1}, []int{2, 0, 1}},
		{"absent", nil, []int{0, 1, 2}},
		{"duplicate index", []int{0, 0, 1}, []int{0, 1, 2}},
		{"out of range", []int{0, 1, 3}, []int{0, 1, 2}},
		{"negative", []int{-1, 0, 1}, []int{0, 1, 2}},
		{"short", []int{1, 0}, []int{0, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Batch{Intents: three, Order: tt.order}
			assert.Equal(t, tt.want, b.ResolveOrder())
		})
	}
}

func TestBatch_ResolveOrderEmpty(t *testing.T) {
	assert.Empty(t, Batch{}.ResolveOrder())
}

func TestBatch_Ordered(t *testing.T) {
	b := Batch{
		Intents: []Intent{{Kind: OpenApp}, {Kind: Screenshot}, {Kind: MediaPlay}},
		Order:   []int{2, 0, 1},
	}
	got := b.Ordered()
	require.Len(t, got, 3)
	assert.Equal(t, []Kind{MediaPlay, OpenApp, Screenshot}, []Kind{got[0].Kind, got[1].Kind, got[2].Kind})
}

func TestParse_Single(t *testing.T) {
	b, err := Parse([]byte(`{"intent":"open_app","app_name":"notepad","description":"Opening notepad"}`))
	require.NoError(t, err)
	require.Len(t, b.Intents, 1)
	assert.Equal(t, OpenApp, b.Intents[0].Kind)
	assert.Equal(t, "notepad", b.Intents[0].AppName)
	assert.Equal(t, "Opening notepad", b.Description)
}

func TestParse_Multi(t *testing.T) {
	raw := `{
		"actions": [
			{"intent": "Open-App", "app_name": "spotify"},
			{"intent": "media_play"}
		],
		"overall_description": "Starting music",
		"execution_order": [1, 0]
	}`
	b, err := Parse([]byte(raw))
	require.NoError(t, err)
	require.Len(t, b.Intents, 2)
	assert.Equal(t, OpenApp, b.Intents[0].Kind)
	assert.Equal(t, []int{1, 0}, b.Order)
	assert.Equal(t, "Starting music", b.Description)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "open the app"},
		{"no intent", `{"description":"hi"}`},
		{"empty actions", `{"actions":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Unknown.Valid())
	assert.False(t, Kind("launch_rocket").Valid())
}

func TestIntent_Missing(t *testing.T) {
	in := Intent{Kind: SpamChat, AppName: "x"}
	assert.Equal(t, []Field{FieldTextMessage}, in.Missing(FieldAppName, FieldTextMessage))
}
