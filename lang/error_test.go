package lang

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := ErrArity.With(slog.Int("expected", 1)).Wrap(io.EOF)

	if !errors.Is(err, ErrArity) {
		t.Error("expected derived error to match its sentinel")
	}

	if errors.Is(err, ErrSyntax) {
		t.Error("expected derived error not to match another sentinel")
	}

	if !errors.Is(err, io.EOF) {
		t.Error("expected wrapped cause to match")
	}

	if ErrArity.Is(ErrSyntax) || !ErrSyntax.Is(ErrSyntax) {
		t.Error("unexpected sentinel comparison")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message", ErrSyntax, "syntax error"},
		{
			"attrs",
			ErrIndex.With(slog.String("base", "xs"), slog.String("index", "3")),
			"indexing error (base=xs index=3)",
		},
		{
			"cause",
			ErrInput.Wrap(io.EOF),
			"failed to read input: EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestErrorWithIsImmutable(t *testing.T) {
	base := ErrSyntax.With(slog.String("text", "a"))
	_ = base.With(slog.String("line", "1"))

	if _, ok := base.Attr("line"); ok {
		t.Error("expected With to leave the receiver unchanged")
	}

	if _, ok := ErrSyntax.Attr("text"); ok {
		t.Error("expected sentinel to stay bare")
	}
}

func TestErrorLogValue(t *testing.T) {
	err := ErrIndex.With(slog.String("base", "xs")).Wrap(io.EOF)

	v := err.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("expected group, got %s", v.Kind())
	}

	got := map[string]string{}
	for _, a := range v.Group() {
		got[a.Key] = a.Value.String()
	}

	want := map[string]string{"error": "indexing error", "cause": "EOF", "base": "xs"}
	for k, w := range want {
		if got[k] != w {
			t.Errorf("attribute %q: expected %q, got %q", k, w, got[k])
		}
	}
}

func TestAtLine(t *testing.T) {
	err := atLine(ErrSyntax, 3)
	err = atLine(err, 7)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	if v, _ := e.Attr("line"); v.Int64() != 3 {
		t.Errorf("expected innermost line 3, got %s", v)
	}

	if plain := atLine(io.EOF, 1); plain != io.EOF {
		t.Errorf("expected non-*Error unchanged, got %v", plain)
	}
}
