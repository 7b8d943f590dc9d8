//go:build linux

// arena_linux_test.go — mbind ABI pinning.
package arena

import "testing"

// The mbind policy arguments are raw kernel ABI values, not symbols the
// unix package checks for us. Pin them to linux/mempolicy.h so an edit
// cannot silently turn strict binding into a no-op or a different policy.
func TestMbindABIValues(t *testing.T) {
	if mpolBind != 2 {
		t.Errorf("MPOL_BIND = %d, want 2", mpolBind)
	}
	if mpolMFStrict != 0x1 {
		t.Errorf("MPOL_MF_STRICT = %#x, want 0x1", mpolMFStrict)
	}
}
