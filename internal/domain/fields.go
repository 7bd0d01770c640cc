package domain

import (
	"regexp"
	"strings"
)

// noticeIDRe matches a series letter, four-digit number and two-digit year,
// e.g. "A0123/25".
var noticeIDRe = regexp.MustCompile(`\b[A-Z]\d{4}/\d{2}\b`)

// fieldLabels are the single-letter labels the scanner recognizes. D, F and G
// are not decoded but must terminate the free-text body.
const fieldLabels = "ABCDEFGQ"

// Fields holds the labeled values scanned from a raw notice block. Each value
// is trimmed; an empty string means the field was absent.
type Fields struct {
	NoticeID  string
	Location  string // A)
	Start     string // B)
	End       string // C)
	Schedule  string // D)
	Body      string // E)
	Lower     string // F)
	Upper     string // G)
	Qualifier string // Q), first line only, label stripped
}

// ExtractFields scans a notice block line by line. A label is a letter from
// fieldLabels followed by ')' at the start of a line or after whitespace; its
// value is all text up to the next label, across line breaks. The first
// occurrence of a label wins. The identifier is taken from the text before
// the first label. When the block is wrapped in parentheses, the closing one
// is removed from whichever field ends the block.
func ExtractFields(text string) Fields {
	values := make(map[byte]*strings.Builder)
	var preamble strings.Builder
	var current byte

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, seg := range splitLabels(line) {
			if seg.label != 0 {
				current = seg.label
				if _, seen := values[current]; seen {
					// Repeated label: drop its value.
					current = '-'
				} else {
					values[current] = &strings.Builder{}
				}
			}
			appendSegment(current, seg.text, values, &preamble)
		}
		// Line breaks are kept inside multi-line values.
		appendSegment(current, "\n", values, &preamble)
	}
	if current != 0 && current != '-' && strings.HasPrefix(strings.TrimSpace(preamble.String()), "(") {
		trimEnvelope(values[current])
	}

	get := func(label byte) string {
		if b, ok := values[label]; ok {
			return strings.TrimSpace(b.String())
		}
		return ""
	}

	f := Fields{
		Location: firstToken(get('A')),
		Start:    firstToken(get('B')),
		End:      firstToken(get('C')),
		Schedule: get('D'),
		Body:     normalizeBody(get('E')),
		Lower:    get('F'),
		Upper:    get('G'),
	}
	if q := get('Q'); q != "" {
		f.Qualifier = strings.TrimSpace(strings.SplitN(q, "\n", 2)[0])
	}
	f.NoticeID = noticeIDRe.FindString(preamble.String())
	return f
}

type segment struct {
	label byte
	text  string
}

// splitLabels cuts a line at every recognized label. The first segment has a
// zero label when the line does not start with one.
func splitLabels(line string) []segment {
	var segs []segment
	start := 0
	var label byte
	for i := 0; i+1 < len(line); i++ {
		if line[i+1] != ')' || strings.IndexByte(fieldLabels, line[i]) < 0 {
			continue
		}
		if i > 0 && line[i-1] != ' ' && line[i-1] != '\t' {
			continue
		}
		segs = append(segs, segment{label: label, text: line[start:i]})
		label = line[i]
		start = i + 2
		i++
	}
	return append(segs, segment{label: label, text: line[start:]})
}

func appendSegment(current byte, text string, values map[byte]*strings.Builder, preamble *strings.Builder) {
	switch current {
	case 0:
		preamble.WriteString(text)
	case '-':
	default:
		values[current].WriteString(text)
	}
}

// trimEnvelope drops one trailing ')' from b when it has no matching '('.
func trimEnvelope(b *strings.Builder) {
	v := strings.TrimRight(b.String(), " \t\r\n")
	if !strings.HasSuffix(v, ")") || strings.Count(v, ")") <= strings.Count(v, "(") {
		return
	}
	b.Reset()
	b.WriteString(v[:len(v)-1])
}

func firstToken(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return ""
}

// normalizeBody trims indentation from every line of the free text.
func normalizeBody(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
