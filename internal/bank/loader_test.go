package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepv/driving-backend/internal/model"
)

const bankJSON = `[
	{"id": "1", "question": "Red light?", "options": {"A": "Go", "B": "Stop"}, "answer": "B", "type": "choice"},
	{"id": "2", "question": "Seatbelts required?", "options": {"A": "yes", "B": "no"}, "answer": "yes", "type": "judgment"}
]`

func TestLoadNamespacesIDsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(bankJSON))
	}))
	defer srv.Close()

	loader := NewLoader(zerolog.Nop())
	questions, err := loader.Load(context.Background(), model.BankQuick, srv.URL)
	require.NoError(t, err)

	require.Len(t, questions, 2)
	assert.Equal(t, "quick-1", questions[0].ID)
	assert.Equal(t, "quick-2", questions[1].ID)
	assert.Equal(t, "B", questions[0].Answer)
	require.Len(t, questions[0].Options, 2)
	assert.Equal(t, "A", questions[0].Options[0].Key)
}

func TestLoadServerErrorIsErrFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader := NewLoader(zerolog.Nop())
	_, err := loader.Load(context.Background(), model.BankQuick, srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoadMalformedBodyIsErrFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer srv.Close()

	loader := NewLoader(zerolog.Nop())
	_, err := loader.Load(context.Background(), model.BankFull, srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestLoadUnreachableHostIsErrFetch(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	_, err := loader.Load(context.Background(), model.BankQuick, "http://127.0.0.1:1/questions.json")
	assert.ErrorIs(t, err, ErrFetch)
}

func TestCorpusLookup(t *testing.T) {
	corpus := NewCorpus(map[model.Bank][]model.Question{
		model.BankQuick: {
			{ID: "quick-1", Answer: "A"},
			{ID: "quick-2", Answer: "B"},
		},
	})

	assert.Equal(t, 2, corpus.Size(model.BankQuick))
	assert.Equal(t, 0, corpus.Size(model.BankFull))
	assert.Nil(t, corpus.Questions(model.BankFull))

	q, ok := corpus.Lookup(model.BankQuick, "quick-2")
	require.True(t, ok)
	assert.Equal(t, "B", q.Answer)

	_, ok = corpus.Lookup(model.BankQuick, "quick-9")
	assert.False(t, ok)
}
