package schema

import "strings"

// SplitPath splits a property path into segments.
//
// Dots separate segments and brackets hold a single segment, optionally
// quoted:
//
//	SplitPath("children[0].father")   // ["children" "0" "father"]
//	SplitPath(`meta["a.b"].x`)        // ["meta" "a.b" "x"]
//
// Empty segments between consecutive dots are kept so that they miss during
// lookups instead of silently collapsing.
func SplitPath(path string) []string {
	var (
		out []string
		cur strings.Builder
		// pending is true when cur holds a segment that must be emitted even
		// if empty (after a '.').
		pending bool
	)

	flush := func() {
		if cur.Len() > 0 || pending {
			out = append(out, cur.String())
		}
		cur.Reset()
		pending = false
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
			pending = true
		case '[':
			flush()
			end := strings.IndexByte(path[i+1:], ']')
			if end < 0 {
				// unterminated bracket, keep the rest verbatim
				cur.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			seg := path[i+1 : i+1+end]
			if len(seg) >= 2 && (seg[0] == '"' || seg[0] == '\'') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			out = append(out, seg)
			i += end + 1
		default:
			cur.WriteByte(c)
			pending = false
		}
	}
	flush()
	return out
}
