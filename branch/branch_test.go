// branch/branch_test.go
package branch

import (
	"errors"
	"testing"
)

func TestCheckScratch(t *testing.T) {
	if err := CheckScratch(64); err != nil {
		t.Errorf("64-byte elements rejected: %v", err)
	}
	if err := CheckScratch(24); err != nil {
		t.Errorf("24-byte elements rejected: %v", err)
	}
	if err := CheckScratch(16); err == nil {
		t.Error("16-byte elements accepted without scratch space")
	}
}

func TestCompileRefuses(t *testing.T) {
	c := For()
	if c == nil {
		t.Fatal("no compiler capability returned")
	}
	if _, err := c.Compile(nil, 4096); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Compile error = %v, want ErrNotImplemented", err)
	}
}
