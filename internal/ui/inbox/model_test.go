package inbox

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/neuralmail/internal/keys"
	"github.com/nhle/neuralmail/internal/model"
)

type memLoader struct {
	msgs []model.Message
}

func (l memLoader) All(context.Context) ([]model.Message, error) {
	return append([]model.Message(nil), l.msgs...), nil
}

func (l memLoader) Search(_ context.Context, q string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range l.msgs {
		if strings.Contains(strings.ToLower(m.Subject), strings.ToLower(q)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l memLoader) ByCategory(_ context.Context, c model.Category) ([]model.Message, error) {
	var out []model.Message
	for _, m := range l.msgs {
		if m.Category == c {
			out = append(out, m)
		}
	}
	return out, nil
}

var sample = memLoader{msgs: []model.Message{
	{ID: 1, Subject: "Budget review", Category: model.CategoryWork},
	{ID: 2, Subject: "Budget statement", Category: model.CategoryFinance},
	{ID: 3, Subject: "Dinner Saturday", Category: model.CategorySocial},
}}

func ids(msgs []model.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestLoadAppliesFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "no filter", filter: Filter{}, want: []int64{1, 2, 3}},
		{name: "category", filter: Filter{Category: model.CategoryFinance}, want: []int64{2}},
		{name: "query", filter: Filter{Query: "budget"}, want: []int64{1, 2}},
		{name: "query within category", filter: Filter{Query: "budget", Category: model.CategoryWork}, want: []int64{1}},
		{name: "no match", filter: Filter{Query: "budget", Category: model.CategorySocial}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := load(context.Background(), sample, tt.filter)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", gotIDs, tt.want)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", gotIDs, tt.want)
				}
			}
		})
	}
}

func TestSetCategoryToggles(t *testing.T) {
	m := New(sample, keys.DefaultKeyMap(), 40, 20)

	m.SetCategory(model.CategoryWork)
	if m.Filter().Category != model.CategoryWork {
		t.Fatalf("category = %q, want Work", m.Filter().Category)
	}
	m.SetCategory(model.CategoryWork)
	if m.Filter().Active() {
		t.Errorf("filter = %+v, want cleared", m.Filter())
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSearchFlow(t *testing.T) {
	m := New(sample, keys.DefaultKeyMap(), 40, 20)

	m, _ = m.Update(runes("/"))
	if !m.Searching() {
		t.Fatal("not searching after /")
	}
	m, _ = m.Update(runes("dinner"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Searching() {
		t.Error("still searching after enter")
	}
	if m.Filter().Query != "dinner" {
		t.Fatalf("query = %q, want dinner", m.Filter().Query)
	}
	if cmd == nil {
		t.Fatal("enter returned no load command")
	}

	loaded, ok := cmd().(MessagesLoadedMsg)
	if !ok || loaded.Err != nil {
		t.Fatalf("load result = %#v", loaded)
	}
	m, _ = m.Update(loaded)
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if got, ok := m.SelectedMessage(); !ok || got.ID != 3 {
		t.Errorf("selected = %+v ok=%v", got, ok)
	}
	if s := m.FilterSummary(); s != `search: "dinner"` {
		t.Errorf("FilterSummary() = %q", s)
	}
}

func TestEscapeClearsSearch(t *testing.T) {
	m := New(sample, keys.DefaultKeyMap(), 40, 20)

	m, _ = m.Update(runes("/"))
	m, _ = m.Update(runes("budget"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.Searching() || m.Filter().Query != "" {
		t.Errorf("searching=%v filter=%+v, want cleared", m.Searching(), m.Filter())
	}
}

func TestEmptyStateMessages(t *testing.T) {
	m := New(memLoader{}, keys.DefaultKeyMap(), 40, 20)
	if !strings.Contains(m.View(), "Loading") {
		t.Errorf("View() before load = %q", m.View())
	}

	m, _ = m.Update(MessagesLoadedMsg{})
	if !strings.Contains(m.View(), "No mail yet") {
		t.Errorf("View() with empty store = %q", m.View())
	}

	m.SetCategory(model.CategoryWork)
	if !strings.Contains(m.View(), "No matching mail") {
		t.Errorf("View() with filter = %q", m.View())
	}
}
