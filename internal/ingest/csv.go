package ingest

import "strings"

// ParseLine splits one delimited line into fields. Quotes group commas into a
// field and a doubled quote inside a quoted field yields one literal quote.
// The final field is always emitted, so an empty line yields one empty field.
// It never fails; malformed quoting is absorbed into field contents.
//
// Lines are parsed independently; a quoted field cannot span lines.
func ParseLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuotes && i+1 < len(line) && line[i+1] == '"':
			cur.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	return append(fields, cur.String())
}

// splitLines trims the payload, splits it on newlines and drops lines that
// are blank after trimming.
func splitLines(text string) []string {
	raw := strings.Split(strings.TrimSpace(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
