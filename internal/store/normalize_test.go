package store_test

import (
	"testing"

	"jobwatch/notify-service/internal/store"
)

func TestNormalizeKeyword(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"golang", "golang"},
		{"GoLang", "golang"},
		{"  Remote ", "remote"},
		{"\tPython\n", "python"},
		{"", ""},
		{"   ", ""},
		{"Senior Engineer", "senior engineer"},
	}
	for _, c := range cases {
		if got := store.NormalizeKeyword(c.in); got != c.want {
			t.Errorf("NormalizeKeyword(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
