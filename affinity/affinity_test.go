// affinity/affinity_test.go
package affinity

import "testing"

func TestAvailableCPUs(t *testing.T) {
	n := AvailableCPUs()
	if n < 1 {
		t.Fatalf("AvailableCPUs = %d", n)
	}
}
