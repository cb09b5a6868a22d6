package patch

import (
	"fmt"
	"strings"
)

// Patch is a single locate-then-splice request.
type Patch struct {
	// Marker locates the region start. Optional for LineRange, where it acts
	// as a guard that must appear on the first selected line.
	Marker     string
	Occurrence Occurrence
	Anchor     Anchor
	Strategy   Strategy

	Replacement string
}

// Resolve computes the region p selects in d.
func Resolve(d Document, p Patch) (Region, error) {
	r, err := resolve(d, p)
	if err != nil {
		return Region{}, err
	}
	return r, nil
}

func resolve(d Document, p Patch) (Region, *Error) {
	if p.Strategy == nil {
		return Region{}, newError(KindInvalidStrategy, "no strategy")
	}
	if !p.Strategy.needsMarker() {
		r, err := p.Strategy.region(d, 0, 0, p.Occurrence)
		if err != nil {
			return Region{}, err
		}
		if p.Marker != "" {
			line := d.LineOf(r.Start)
			span, _ := d.LineSpan(line)
			if !strings.Contains(d.Slice(span), p.Marker) {
				e := newError(KindMarkerNotFound, fmt.Sprintf("guard marker not on line %d", line))
				e.Marker = p.Marker
				e.Line = line
				return Region{}, e
			}
		}
		return r, nil
	}
	if p.Marker == "" {
		return Region{}, newError(KindInvalidMarker, "marker is empty")
	}
	at, err := findMarker(d.text, 0, p.Marker, p.Occurrence)
	if err != nil {
		return Region{}, err
	}
	after := at + len(p.Marker)
	start := after
	if p.Anchor == AnchorBefore {
		start = at
	}
	return p.Strategy.region(d, start, after, p.Occurrence)
}

// Splice returns d[:r.Start] + replacement + d[r.End:]. It never inspects
// the replacement.
func Splice(d Document, r Region, replacement string) (Document, error) {
	if r.Start < 0 || r.Start > r.End || r.End > len(d.text) {
		e := newError(KindInvalidRange, fmt.Sprintf("region %s outside document of %d bytes", r, len(d.text)))
		e.Offsets = []int{r.Start, r.End}
		return d, e
	}
	var sb strings.Builder
	sb.Grow(len(d.text) - r.Len() + len(replacement))
	sb.WriteString(d.text[:r.Start])
	sb.WriteString(replacement)
	sb.WriteString(d.text[r.End:])
	return NewDocument(sb.String()), nil
}

// Apply resolves p against d and splices in p.Replacement.
// On failure the returned Document is d.
func Apply(d Document, p Patch) (Document, Region, error) {
	r, err := resolve(d, p)
	if err != nil {
		return d, Region{}, err
	}
	out, serr := Splice(d, r, p.Replacement)
	if serr != nil {
		return d, Region{}, serr
	}
	return out, r, nil
}
