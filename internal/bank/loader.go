// Package bank fetches and prepares the read-only question banks. The
// engine never re-namespaces ids: the "<bank>-<rawId>" prefix is applied
// exactly once here, at load time.
package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepv/driving-backend/internal/model"
)

// ErrFetch wraps any bank source failure. A bank either loads completely or
// not at all; a partial question list is never returned.
var ErrFetch = errors.New("question bank fetch failed")

// Loader fetches question bank JSON by URL.
type Loader struct {
	client *http.Client
	log    zerolog.Logger
}

// NewLoader creates a Loader with a bounded request timeout.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("component", "bank_loader").Logger(),
	}
}

// Load fetches the bank at url, decodes it and prefixes every question id
// with the bank name.
func (l *Loader) Load(ctx context.Context, bank model.Bank, url string) ([]model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, url, resp.StatusCode)
	}

	var questions []model.Question
	if err := json.NewDecoder(resp.Body).Decode(&questions); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}

	for i := range questions {
		questions[i].ID = fmt.Sprintf("%s-%s", bank, questions[i].ID)
	}

	l.log.Info().
		Str("bank", string(bank)).
		Int("count", len(questions)).
		Msg("Question bank loaded")

	return questions, nil
}

// Corpus holds the loaded banks for the lifetime of the process.
type Corpus struct {
	banks map[model.Bank][]model.Question
	byID  map[model.Bank]map[string]model.Question
}

// NewCorpus indexes the loaded banks.
func NewCorpus(banks map[model.Bank][]model.Question) *Corpus {
	byID := make(map[model.Bank]map[string]model.Question, len(banks))
	for bank, questions := range banks {
		idx := make(map[string]model.Question, len(questions))
		for _, q := range questions {
			idx[q.ID] = q
		}
		byID[bank] = idx
	}
	return &Corpus{banks: banks, byID: byID}
}

// Questions returns the ordered question list for a bank.
func (c *Corpus) Questions(bank model.Bank) []model.Question {
	return c.banks[bank]
}

// Lookup returns a question by its namespaced id.
func (c *Corpus) Lookup(bank model.Bank, id string) (model.Question, bool) {
	q, ok := c.byID[bank][id]
	return q, ok
}

// Size returns the number of questions in a bank.
func (c *Corpus) Size(bank model.Bank) int {
	return len(c.banks[bank])
}
