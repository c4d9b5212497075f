package refs

const (
	maxLabelLen  = 20
	LoadingLabel = "Loading..."
)

// Labels is read by Render. *Cache satisfies it.
type Labels interface {
	Label(key string) (string, bool)
}

// Segment is either literal text or one reference. For references Text is
// the display label.
type Segment struct {
	Text  string
	Ref   bool
	Token Token
}

// DisplayLabel truncates label to 20 characters plus "...".
func DisplayLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= maxLabelLen {
		return label
	}
	return string(runes[:maxLabelLen]) + "..."
}

func labelFor(labels Labels, tok Token) string {
	if labels != nil {
		if l, ok := labels.Label(tok.String()); ok {
			return DisplayLabel(l)
		}
	}
	return LoadingLabel
}

// Render splits text into literal and reference segments. Valid groups
// become "[" ref (", " ref)* "]"; everything else is kept verbatim.
// Adjacent literal segments are merged.
func Render(text string, labels Labels) []Segment {
	var segs []Segment
	literal := func(s string) {
		if s == "" {
			return
		}
		if n := len(segs); n > 0 && !segs[n-1].Ref {
			segs[n-1].Text += s
			return
		}
		segs = append(segs, Segment{Text: s})
	}

	last := 0
	for _, loc := range bracketRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		literal(text[last:start])
		last = end

		tokens, ok := parseGroup(text[loc[2]:loc[3]])
		if !ok {
			literal(text[start:end])
			continue
		}
		literal("[")
		for i, tok := range tokens {
			if i > 0 {
				literal(", ")
			}
			segs = append(segs, Segment{Text: labelFor(labels, tok), Ref: true, Token: tok})
		}
		literal("]")
	}
	literal(text[last:])
	return segs
}

// Refs returns the reference segments of segs in order.
func Refs(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Ref {
			out = append(out, s)
		}
	}
	return out
}
