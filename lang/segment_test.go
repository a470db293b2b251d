package lang

import (
	"slices"
	"testing"
)

func TestSplitLines(t *testing.T) {
	lines := SplitLines("a\r\n  b  \n\nc")

	want := []Line{{1, "a"}, {2, "  b"}, {3, ""}, {4, "c"}}
	if !slices.Equal(lines, want) {
		t.Errorf("expected %v, got %v", want, lines)
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []Block
	}{
		{
			name:   "flat",
			source: "x is 1\nsay x",
			want: []Block{
				{Header: Line{1, "x is 1"}},
				{Header: Line{2, "say x"}},
			},
		},
		{
			name:   "body",
			source: "fnc f(a):\n    a is a + 1\n    out a\nx is 5",
			want: []Block{
				{
					Header: Line{1, "fnc f(a):"},
					Body:   []Line{{2, "a is a + 1"}, {3, "out a"}},
				},
				{Header: Line{4, "x is 5"}},
			},
		},
		{
			name:   "nested body keeps relative indentation",
			source: "if x:\n    if y:\n        say 1\n    say 2\nsay 3",
			want: []Block{
				{
					Header: Line{1, "if x:"},
					Body:   []Line{{2, "if y:"}, {3, "    say 1"}, {4, "say 2"}},
				},
				{Header: Line{5, "say 3"}},
			},
		},
		{
			name:   "comments and blank lines",
			source: "# heading\n\ngo i in {1}:\n\n    # note\n    say i\n  # stray\nsay 0",
			want: []Block{
				{
					Header: Line{3, "go i in {1}:"},
					Body:   []Line{{6, "say i"}},
				},
				{Header: Line{8, "say 0"}},
			},
		},
		{
			name:   "header without colon has no body",
			source: "say 1\n    say 2",
			want: []Block{
				{Header: Line{1, "say 1"}},
				{Header: Line{2, "say 2"}},
			},
		},
		{
			name:   "empty body",
			source: "if x:\nsay 1",
			want: []Block{
				{Header: Line{1, "if x:"}},
				{Header: Line{2, "say 1"}},
			},
		},
		{
			name:   "shallow indentation strips at most leading spaces",
			source: "if x:\n  say 1",
			want: []Block{
				{
					Header: Line{1, "if x:"},
					Body:   []Line{{2, "say 1"}},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(SplitLines(tt.source))

			if len(got) != len(tt.want) {
				t.Fatalf("expected %d blocks, got %d: %v", len(tt.want), len(got), got)
			}

			for i := range got {
				if got[i].Header != tt.want[i].Header {
					t.Errorf("block %d: expected header %v, got %v",
						i, tt.want[i].Header, got[i].Header)
				}

				if !slices.Equal(got[i].Body, tt.want[i].Body) {
					t.Errorf("block %d: expected body %v, got %v",
						i, tt.want[i].Body, got[i].Body)
				}
			}
		})
	}
}

func TestBlockOpens(t *testing.T) {
	if !(Block{Header: Line{Text: "if x:"}}).Opens() {
		t.Error("expected header ending in ':' to open a body")
	}

	if (Block{Header: Line{Text: "say x"}}).Opens() {
		t.Error("expected header without ':' not to open a body")
	}
}
