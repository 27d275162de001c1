package notifier_test

import (
	"testing"

	"jobwatch/notify-service/internal/model"
	"jobwatch/notify-service/internal/notifier"
)

func items(keywords ...string) []model.SubscriptionItem {
	out := make([]model.SubscriptionItem, 0, len(keywords))
	for i, kw := range keywords {
		out = append(out, model.SubscriptionItem{ID: int64(i + 1), Keyword: kw})
	}
	return out
}

func keywordsOf(matched []model.SubscriptionItem) []string {
	out := make([]string, 0, len(matched))
	for _, it := range matched {
		out = append(out, it.Keyword)
	}
	return out
}

func TestMatchKeywords_CaseInsensitiveSubstring(t *testing.T) {
	cases := []struct {
		name  string
		title string
		items []model.SubscriptionItem
		want  []string
	}{
		{
			name:  "exact lowercase",
			title: "golang developer",
			items: items("golang"),
			want:  []string{"golang"},
		},
		{
			name:  "mixed-case title",
			title: "Senior Golang Engineer",
			items: items("golang", "engineer", "rust"),
			want:  []string{"golang", "engineer"},
		},
		{
			name:  "substring inside a word",
			title: "Remote Go Developer",
			items: items("go"),
			want:  []string{"go"},
		},
		{
			name:  "no match",
			title: "Barista wanted",
			items: items("golang", "rust"),
			want:  nil,
		},
		{
			name:  "no keywords",
			title: "Anything",
			items: nil,
			want:  nil,
		},
		{
			name:  "multi-word keyword",
			title: "Lead senior engineer position",
			items: items("senior engineer"),
			want:  []string{"senior engineer"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := keywordsOf(notifier.MatchKeywords(c.title, c.items))
			if len(got) != len(c.want) {
				t.Fatalf("MatchKeywords(%q) = %v, want %v", c.title, got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Errorf("MatchKeywords(%q)[%d] = %q, want %q", c.title, i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestMatchKeywords_PreservesItemOrder(t *testing.T) {
	got := keywordsOf(notifier.MatchKeywords("go and rust and zig", items("zig", "go", "rust")))
	want := []string{"zig", "go", "rust"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestMatchKeywords_SkipsEmptyKeyword(t *testing.T) {
	got := notifier.MatchKeywords("any title", items("", "title"))
	if len(got) != 1 || got[0].Keyword != "title" {
		t.Errorf("MatchKeywords with empty keyword = %v, want only %q", keywordsOf(got), "title")
	}
}
