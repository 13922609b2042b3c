package sanitize

import (
	"strings"
	"testing"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "adds terminal punctuation",
			in:   "the web grew out of a physics lab",
			want: "the web grew out of a physics lab.",
		},
		{
			name: "keeps existing punctuation",
			in:   "It changed everything!",
			want: "It changed everything!",
		},
		{
			name: "strips bullet prefix",
			in:   "- a bullet point body",
			want: "a bullet point body.",
		},
		{
			name: "strips leaked rewrite instruction",
			in:   "Rewrite in one sentence: the core idea survives.",
			want: "the core idea survives.",
		},
		{
			name: "strips leaked scene label",
			in:   "Scene 3: the plot thickens.",
			want: "the plot thickens.",
		},
		{
			name: "collapses whitespace",
			in:   "too   many\n\nspaces here.",
			want: "too many spaces here.",
		},
		{
			name: "empty input stays empty",
			in:   "   ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.in); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLineClampsLongInput(t *testing.T) {
	long := strings.Repeat("word ", 600)
	got := Line(long)
	if n := len(strings.Fields(got)); n > maxLineWords {
		t.Errorf("clamped line has %d words, want <= %d", n, maxLineWords)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("clamped line should end with ellipsis, got %q", got[len(got)-10:])
	}
}

func TestLineIdempotent(t *testing.T) {
	inputs := []string{
		"- Scene 2: rewrite this: a tangled    mess",
		"plain sentence already done.",
		strings.Repeat("word ", 600),
		"",
	}
	for _, in := range inputs {
		once := Line(in)
		twice := Line(once)
		if once != twice {
			t.Errorf("Line not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips quotes and trailing period",
			in:   `"The Long Road Home."`,
			want: "The Long Road Home",
		},
		{
			name: "strips title label",
			in:   "Title: origins of the web",
			want: "Origins Of The Web",
		},
		{
			name: "strips scene label",
			in:   "Slide 4: The Turning Point",
			want: "The Turning Point",
		},
		{
			name: "clamps to eight words",
			in:   "one two three four five six seven eight nine ten",
			want: "One Two Three Four Five Six Seven Eight",
		},
		{
			name: "empty stays empty",
			in:   "  ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.in); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{
		`"Scene 1: a grand tour."`,
		"Title: one two three four five six seven eight nine",
		"Already Clean",
	}
	for _, in := range inputs {
		once := Title(in)
		if twice := Title(once); once != twice {
			t.Errorf("Title not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestTitlesEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"The Web: Origins!", "the web origins", true},
		{"Hello, World!", "hello world", true},
		// Apostrophes normalize to a word break, not to nothing.
		{"The Web's Origins", "the webs origins", false},
		{"The Web's Origins", "the web s origins", true},
		{"Different", "Titles", false},
		{"", "", true},
	}
	for _, tt := range tests {
		if got := TitlesEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("TitlesEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsBadTitle(t *testing.T) {
	bad := []string{"", "  ", "overview", "Overview", "Loading", "untitled"}
	for _, s := range bad {
		if !IsBadTitle(s) {
			t.Errorf("IsBadTitle(%q) = false, want true", s)
		}
	}
	if IsBadTitle("A Real Headline") {
		t.Error("IsBadTitle rejected a real headline")
	}
}

func TestTitleFromLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "drops stop words and clamps",
			in:   "The history of the web began in a physics lab. More detail follows.",
			want: "History Web Began Physics Lab",
		},
		{
			name: "uses first sentence only",
			in:   "Short start. This longer second sentence is ignored entirely by the derivation.",
			want: "Short Start",
		},
		{
			name: "empty falls back",
			in:   "",
			want: "Overview",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromLine(tt.in); got != tt.want {
				t.Errorf("TitleFromLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleFromSource(t *testing.T) {
	got := TitleFromSource("- The protocol wars shaped everything that came after. Much more text here.")
	if got != "The Protocol Wars Shaped Everything That" {
		t.Errorf("TitleFromSource = %q", got)
	}
	if TitleFromSource("") != "Overview" {
		t.Error("empty source should fall back to Overview")
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "splits after terminal punctuation",
			in:   "One. Two! Three? Four",
			want: []string{"One.", "Two!", "Three?", "Four"},
		},
		{
			name: "does not split inside abbreviation-free run",
			in:   "No split here",
			want: []string{"No split here"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Sentences(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
