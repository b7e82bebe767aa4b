package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bank identifies one of the independently progressed question banks.
type Bank string

const (
	BankQuick Bank = "quick"
	BankFull  Bank = "full"
)

// Valid reports whether b is one of the known banks.
func (b Bank) Valid() bool {
	return b == BankQuick || b == BankFull
}

// QuestionType distinguishes multiple-choice from true/false questions.
type QuestionType string

const (
	QuestionTypeChoice   QuestionType = "choice"
	QuestionTypeJudgment QuestionType = "judgment"
)

// Option is a single answer option. Key is the display label ("A", "B", ...).
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// OptionList preserves the insertion order of the source JSON object.
// Order matters: answer resolution scans options in display order and the
// first match wins.
type OptionList []Option

// Get returns the text for an option key.
func (o OptionList) Get(key string) (string, bool) {
	for _, opt := range o {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// UnmarshalJSON decodes a JSON object ({"A": "...", "B": "..."}) while
// keeping the key order of the document.
func (o *OptionList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("options: expected JSON object, got %v", tok)
	}

	var opts OptionList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("options: non-string key %v", keyTok)
		}

		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("options[%s]: %w", key, err)
		}
		opts = append(opts, Option{Key: key, Text: text})
	}

	*o = opts
	return nil
}

// MarshalJSON encodes the list back to a JSON object in insertion order.
func (o OptionList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Question is a single bank question. It is read-only as far as the engine
// is concerned; the loader assigns the bank-prefixed ID exactly once.
type Question struct {
	ID      string       `json:"id"`
	Text    string       `json:"question"`
	Options OptionList   `json:"options"`
	Answer  string       `json:"answer"`
	Type    QuestionType `json:"type"`
	Images  []string     `json:"images"`
}
