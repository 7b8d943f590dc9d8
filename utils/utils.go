// utils.go — low-level helpers shared by config parsing, reporting & debug output.
package utils

import "syscall"

///////////////////////////////////////////////////////////////////////////////
// Raw Output — Direct fd Writes Without fmt
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes a message directly to stderr (file descriptor 2).
// Bypasses fmt and buffered writers so it stays usable from pinned worker
// threads without heap pressure.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	b := make([]byte, len(msg))
	copy(b, msg)
	_, _ = syscall.Write(2, b)
}

// PrintLine writes a message plus newline to stdout (file descriptor 1).
//
//go:nosplit
//go:inline
func PrintLine(msg string) {
	b := make([]byte, len(msg)+1)
	copy(b, msg)
	b[len(msg)] = '\n'
	_, _ = syscall.Write(1, b)
}

///////////////////////////////////////////////////////////////////////////////
// Tiny Formatters — Integer & Fixed-Point Decimal
///////////////////////////////////////////////////////////////////////////////

// Itoa converts an int to its decimal string form.
//
//go:nosplit
//go:inline
func Itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Utoa converts a uint64 to its decimal string form.
//
//go:nosplit
//go:inline
func Utoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Ftoa formats a float with the given number of decimal places (the report
// convention is 3 places under 100, 1 place above) without routing
// worker-adjacent paths through strconv.
func Ftoa(v float64, places int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	scale := 1.0
	for i := 0; i < places; i++ {
		scale *= 10
	}
	scaled := uint64(v*scale + 0.5)
	whole := scaled / uint64(scale)
	frac := scaled % uint64(scale)

	s := Utoa(whole)
	if places > 0 {
		f := Utoa(frac)
		for len(f) < places {
			f = "0" + f
		}
		s += "." + f
	}
	if neg {
		s = "-" + s
	}
	return s
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value.
// Used to expand per-thread RNG seeds into full 64-bit state.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
