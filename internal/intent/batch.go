package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Batch is an ordered group of intents produced from one utterance.
type Batch struct {
	Intents     []Intent `json:"actions"`
	Order       []int    `json:"execution_order,omitempty"`
	Description string   `json:"overall_description,omitempty"`
}

// Single wraps one intent into a batch.
func Single(in Intent) Batch {
	return Batch{Intents: []Intent{in}, Description: in.Description}
}

// ResolveOrder returns the explicit order when it is a permutation of
// [0, len(Intents)), otherwise declaration order.
func (b Batch) ResolveOrder() []int {
	n := len(b.Intents)
	if isPermutation(b.Order, n) {
		return append([]int(nil), b.Order...)
	}

	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Ordered returns the intents in resolved order.
func (b Batch) Ordered() []Intent {
	order := b.ResolveOrder()
	out := make([]Intent, 0, len(order))
	for _, idx := range order {
		out = append(out, b.Intents[idx])
	}
	return out
}

func isPermutation(order []int, n int) bool {
	if len(order) != n || n == 0 {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

var ErrEmpty = errors.New("no intent in payload")

// Parse decodes a classifier payload. Both the single-action shape
// {"intent": ...} and the multi-action shape {"actions": [...]} are accepted.
func Parse(raw []byte) (Batch, error) {
	var probe struct {
		Actions json.RawMessage `json:"actions"`
		Intent  string          `json:"intent"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Batch{}, fmt.Errorf("decode intent payload: %w", err)
	}

	if len(probe.Actions) > 0 && string(probe.Actions) != "null" {
		var b Batch
		if err := json.Unmarshal(raw, &b); err != nil {
			return Batch{}, fmt.Errorf("decode intent batch: %w", err)
		}
		if len(b.Intents) == 0 {
			return Batch{}, ErrEmpty
		}
		for i := range b.Intents {
			b.Intents[i].Kind = normalize(b.Intents[i].Kind)
		}
		return b, nil
	}

	if probe.Intent == "" {
		return Batch{}, ErrEmpty
	}

	var in Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return Batch{}, fmt.Errorf("decode intent: %w", err)
	}
	in.Kind = normalize(in.Kind)
	return Single(in), nil
}

func normalize(k Kind) Kind {
	s := strings.ToLower(strings.TrimSpace(string(k)))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return Kind(s)
}
