package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindDuplicateName,
				Span:   Span{Doc: "host.wai", Line: 3, Column: 8, Start: 41, End: 46},
				Name:   "point",
				Detail: "previously defined at host.wai:1:1",
			},
			contains: []string{"[resolve]", "duplicate_name", "host.wai:3:8", "`point`", "previously defined"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseABI,
				Kind:  KindUnresolved,
			},
			contains: []string{"[abi]", "unresolved"},
		},
		{
			name: "with cause",
			err: &Error{
				Phase: PhaseParse,
				Kind:  KindUnexpectedToken,
				Cause: errors.New("boom"),
			},
			contains: []string{"[parse]", "unexpected_token", "caused by: boom"},
		},
		{
			name: "path without span",
			err: &Error{
				Phase: PhaseResolve,
				Kind:  KindCycle,
				Path:  []string{"a", "b", "a"},
			},
			contains: []string{"[resolve]", "cycle", "a.b.a"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := tc.err.Error()
			for _, want := range tc.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("message %q missing %q", msg, want)
				}
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	dup := DuplicateName(Span{}, "x")
	if !errors.Is(dup, &Error{Phase: PhaseResolve, Kind: KindDuplicateName}) {
		t.Error("Is should match on phase+kind")
	}
	if errors.Is(dup, &Error{Phase: PhaseResolve, Kind: KindCycle}) {
		t.Error("Is should not match a different kind")
	}
	if errors.Is(dup, &Error{Phase: PhaseParse, Kind: KindDuplicateName}) {
		t.Error("Is should not match a different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("inner")
	wrapped := Wrap(PhaseResolve, KindUnknownDocument, cause, "load doc")
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseResolve, KindUnknownName).
		Span(Span{Doc: "a.wai", Line: 2, Column: 5}).
		Path("a.wai", "my-record").
		Name("missing-type").
		Detail("no item named %q", "missing-type").
		Build()

	if err.Phase != PhaseResolve || err.Kind != KindUnknownName {
		t.Errorf("phase/kind: got %s/%s", err.Phase, err.Kind)
	}
	if err.Span.Line != 2 || err.Span.Doc != "a.wai" {
		t.Errorf("span: got %+v", err.Span)
	}
	if len(err.Path) != 2 {
		t.Errorf("path: got %v", err.Path)
	}
	if err.Name != "missing-type" {
		t.Errorf("name: got %q", err.Name)
	}
	if err.Detail != `no item named "missing-type"` {
		t.Errorf("detail: got %q", err.Detail)
	}
}

func TestUnexpectedToken_ExpectedSet(t *testing.T) {
	one := UnexpectedToken(Span{Line: 1, Column: 1}, "'}'", "identifier")
	if !strings.Contains(one.Error(), "expected identifier") {
		t.Errorf("got %q", one.Error())
	}

	many := UnexpectedToken(Span{Line: 1, Column: 1}, "','", "identifier", "'}'", "'<'")
	if !strings.Contains(many.Error(), "expected one of identifier, '}', '<'") {
		t.Errorf("got %q", many.Error())
	}
}

func TestSpan_String(t *testing.T) {
	s := Span{Doc: "types.wai", Line: 10, Column: 3}
	if s.String() != "types.wai:10:3" {
		t.Errorf("got %q", s.String())
	}
	anon := Span{Line: 4, Column: 1}
	if anon.String() != "4:1" {
		t.Errorf("got %q", anon.String())
	}
	if (Span{}).IsZero() != true || s.IsZero() {
		t.Error("IsZero misreporting")
	}
}
