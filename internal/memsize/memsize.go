// Package memsize parses and formats the suffixed memory-size strings used
// throughout genv's entities (gpu_memory, total_memory): decimal b/k/m/g and
// binary ki/mi/gi multipliers, or a bare byte count.
package memsize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/allenai/bytefmt"
)

var suffixRe = regexp.MustCompile(`^(\d+)(b|k|m|g|ki|mi|gi)?$`)

var multiplier = map[string]int64{
	"":   1,
	"b":  1,
	"k":  1000,
	"m":  1000 * 1000,
	"g":  1000 * 1000 * 1000,
	"ki": bytefmt.KiB,
	"mi": bytefmt.MiB,
	"gi": bytefmt.GiB,
}

// ToBytes parses a suffixed memory-size string into a byte count.
func ToBytes(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	m := suffixRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("memsize: invalid memory size %q", s)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("memsize: invalid memory size %q: %w", s, err)
	}

	return n * multiplier[m[2]], nil
}

// FromBytes formats a byte count using the given unit suffix ("b", "k", "m",
// "g", "ki", "mi", "gi"). An empty unit formats as a bare byte count.
func FromBytes(bytes int64, unit string) string {
	unit = strings.ToLower(unit)

	factor, ok := multiplier[unit]
	if !ok {
		factor = 1
		unit = ""
	}

	return fmt.Sprintf("%d%s", bytes/factor, unit)
}
