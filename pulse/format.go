package pulse

import (
	"fmt"
	"strings"
)

// Format returns a human-readable dump of the schedule.
//
// Deprecated: the output is one-way and cannot be parsed back into a ScheduleBlock. Use Marshal
// to obtain a lossless encoding.
func Format(s *ScheduleBlock) string {
	if s == nil {
		return "ScheduleBlock(<nil>)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ScheduleBlock(name=%q, alignment=%s", s.Name, s.Alignment)
	if len(s.Metadata) > 0 {
		parts := make([]string, 0, len(s.Metadata))
		for _, k := range s.metadataKeys() {
			parts = append(parts, fmt.Sprintf("%s=%s", k, s.Metadata[k]))
		}
		fmt.Fprintf(&b, ", metadata={%s}", strings.Join(parts, ", "))
	}
	b.WriteString(")\n")
	for _, in := range s.Instructions {
		b.WriteString("    ")
		b.WriteString(in.String())
		b.WriteByte('\n')
	}

	return b.String()
}
