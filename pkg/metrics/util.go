package metrics

import (
	"sort"
	"strconv"
	"strings"

	"github.com/genv-io/genv/internal/memsize"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func toBytes(s string) (int64, error) {
	return memsize.ToBytes(s)
}

// key renders a label set as a stable, sorted string for equality/set
// membership checks (map iteration order isn't deterministic).
func key(labels labelSet) string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(labels[name])
		b.WriteByte(';')
	}
	return b.String()
}
