package either

import (
	"errors"
	"testing"
)

func TestLeft(t *testing.T) {
	boom := errors.New("boom")
	e := Left[error, int](boom)

	if e.IsRight() {
		t.Fatal("expected Left, got Right")
	}
	if !e.IsLeft() {
		t.Fatal("IsLeft should be true for Left")
	}

	l, r := e.Unwrap()
	if l != boom {
		t.Errorf("Unwrap left = %v, want %v", l, boom)
	}
	if r != 0 {
		t.Errorf("Unwrap right = %d, want zero value", r)
	}

	if _, ok := e.RightValue(); ok {
		t.Error("RightValue should not be ok for Left")
	}
	if v, ok := e.LeftValue(); !ok || v != boom {
		t.Errorf("LeftValue = (%v, %v), want (%v, true)", v, ok, boom)
	}
}

func TestRight(t *testing.T) {
	e := Right[error, string]("stored")

	if !e.IsRight() {
		t.Fatal("expected Right, got Left")
	}

	l, r := e.Unwrap()
	if l != nil {
		t.Errorf("Unwrap left = %v, want nil", l)
	}
	if r != "stored" {
		t.Errorf("Unwrap right = %q, want %q", r, "stored")
	}

	if _, ok := e.LeftValue(); ok {
		t.Error("LeftValue should not be ok for Right")
	}
}

func TestZeroValueIsLeft(t *testing.T) {
	var e Either[string, int]
	if e.IsRight() {
		t.Fatal("zero Either should be Left")
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		in   Either[string, int]
		want string
	}{
		{name: "left", in: Left[string, int]("bad"), want: "left:bad"},
		{name: "right", in: Right[string, int](7), want: "right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.in,
				func(l string) string { return "left:" + l },
				func(int) string { return "right" },
			)
			if got != tt.want {
				t.Errorf("Match = %q, want %q", got, tt.want)
			}
		})
	}
}
