package result

import (
	"encoding/json"
	"testing"
)

func TestNewHit(t *testing.T) {
	src := json.RawMessage(`{"title":"Direito Eleitoral"}`)
	hl := map[string][]string{"title": {"<em>Direito</em> Eleitoral"}}

	h := NewHit("b1", 3.2, src, hl)

	if h.ID() != "b1" {
		t.Errorf("ID() = %q", h.ID())
	}
	if h.Score() != 3.2 {
		t.Errorf("Score() = %f", h.Score())
	}
	if string(h.Source()) != string(src) {
		t.Errorf("Source() = %s", h.Source())
	}
	if h.Highlight()["title"][0] != "<em>Direito</em> Eleitoral" {
		t.Errorf("Highlight() = %v", h.Highlight())
	}
}

func TestNewHit_NilFields(t *testing.T) {
	h := NewHit("id", 0, nil, nil)
	if h.Source() != nil {
		t.Errorf("Source() = %s, want nil", h.Source())
	}
	if h.Highlight() != nil {
		t.Errorf("Highlight() = %v, want nil", h.Highlight())
	}
}

func TestPage(t *testing.T) {
	p := NewPage(12, 5, []Hit{NewHit("a", 1, nil, nil)})
	if p.Total() != 12 || p.TookMs() != 5 || len(p.Hits()) != 1 {
		t.Errorf("unexpected page %+v", p)
	}
	if p.Empty() {
		t.Error("Empty() = true")
	}

	empty := NewPage(0, 1, nil)
	if !empty.Empty() {
		t.Error("Empty() = false for zero total")
	}
}
