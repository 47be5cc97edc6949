package enrol

import (
	"strings"
	"testing"
)

func TestSpelling(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"4281 4281", "four two eight one four two eight one "},
		{"123456789", "one two three four five six seven eight nine "},
		{"987654321", "nine eight seven six five four three two one "},
		// Zero never contributes a word.
		{"105", "one five "},
		{"000", ""},
		{"", ""},
		{"a1b2", "one two "},
	}
	for _, tc := range cases {
		if got := Spelling(tc.in); got != tc.want {
			t.Errorf("Spelling(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNumbersFixedList(t *testing.T) {
	items := Numbers()
	want := []string{"4281 4281", "3798 3798", "5043 5043", "123456789", "987654321"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d", len(items), len(want))
	}
	for i, item := range items {
		if item.Text != want[i] {
			t.Errorf("item %d = %q, want %q", i, item.Text, want[i])
		}
		if item.Spelling != Spelling(item.Text) {
			t.Errorf("item %d spelling = %q, want derived spelling", i, item.Spelling)
		}
	}
}

func TestRandomNumberString(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		s := RandomNumberString()
		seen[s] = true
		halves := strings.SplitN(s, " ", 2)
		if len(halves) != 2 || halves[0] != halves[1] {
			t.Fatalf("challenge %q is not a doubled group", s)
		}
		four := halves[0]
		if len(four) != 4 {
			t.Fatalf("challenge %q group is not 4 digits", s)
		}
		unique := map[rune]bool{}
		for _, r := range four {
			if r < '1' || r > '9' {
				t.Fatalf("challenge %q contains %q, want digits 1-9", s, r)
			}
			if unique[r] {
				t.Fatalf("challenge %q repeats digit %q", s, r)
			}
			unique[r] = true
		}
	}
	if len(seen) < 2 {
		t.Error("50 challenges were all identical")
	}
}
