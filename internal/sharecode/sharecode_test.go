package sharecode

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	gen := NewGenerator(func(ctx context.Context, code string) (bool, error) {
		return false, nil
	})

	for i := 0; i < 50; i++ {
		code, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("code %q has length %d, want %d", code, len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	gen := NewGenerator(func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 3, nil
	})

	code, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if code == "" {
		t.Fatal("empty code")
	}
	if calls != 4 {
		t.Errorf("probe called %d times, want 4", calls)
	}
}

func TestGenerateExhausted(t *testing.T) {
	calls := 0
	gen := NewGenerator(func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if calls != maxAttempts {
		t.Errorf("probe called %d times, want %d", calls, maxAttempts)
	}
}

func TestGenerateProbeError(t *testing.T) {
	probeErr := errors.New("connection refused")
	gen := NewGenerator(func(ctx context.Context, code string) (bool, error) {
		return false, probeErr
	})

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, probeErr) {
		t.Fatalf("err = %v, want wrapped probe error", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"abcd1234", "ABCD1234"},
		{"  AbCd1234  ", "ABCD1234"},
		{"ALREADY9", "ALREADY9"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAppendLettersUniform(t *testing.T) {
	// Byte values map straight through the alphabet...
	got := appendLetters(nil, []byte{0, 25, 26, 35, 36})
	if string(got) != "AZ09A" {
		t.Errorf("mapped = %q, want %q", got, "AZ09A")
	}

	// ...and values past the largest whole multiple of the alphabet are
	// discarded rather than wrapped onto A-D.
	got = appendLetters(nil, []byte{252, 253, 254, 255, 1})
	if string(got) != "B" {
		t.Errorf("mapped = %q, want %q", got, "B")
	}

	// Output is capped at code length.
	long := make([]byte, Length+10)
	if got := appendLetters(nil, long); len(got) != Length {
		t.Errorf("len = %d, want %d", len(got), Length)
	}
}
