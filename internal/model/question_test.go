package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionListPreservesDocumentOrder(t *testing.T) {
	raw := []byte(`{"C":"third","A":"first","B":"second"}`)

	var opts OptionList
	require.NoError(t, json.Unmarshal(raw, &opts))

	require.Len(t, opts, 3)
	assert.Equal(t, Option{Key: "C", Text: "third"}, opts[0])
	assert.Equal(t, Option{Key: "A", Text: "first"}, opts[1])
	assert.Equal(t, Option{Key: "B", Text: "second"}, opts[2])

	out, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(out))
}

func TestOptionListRejectsNonObject(t *testing.T) {
	var opts OptionList
	assert.Error(t, json.Unmarshal([]byte(`["A","B"]`), &opts))
}

func TestOptionListGet(t *testing.T) {
	opts := OptionList{{Key: "A", Text: "stop"}, {Key: "B", Text: "yield"}}

	text, ok := opts.Get("B")
	require.True(t, ok)
	assert.Equal(t, "yield", text)

	_, ok = opts.Get("Z")
	assert.False(t, ok)
}

func TestQuestionDecode(t *testing.T) {
	raw := []byte(`{
		"id": "17",
		"question": "What does a red light mean?",
		"options": {"A": "Go", "B": "Stop"},
		"answer": "B",
		"type": "choice"
	}`)

	var q Question
	require.NoError(t, json.Unmarshal(raw, &q))
	assert.Equal(t, "17", q.ID)
	assert.Equal(t, QuestionTypeChoice, q.Type)
	require.Len(t, q.Options, 2)
	assert.Equal(t, "B", q.Answer)
}
