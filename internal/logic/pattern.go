package logic

import "strings"

// PatternKind says how many channels crossed the detection threshold.
type PatternKind int

const (
	PatternNone PatternKind = iota
	PatternSingle
	PatternPair
	PatternAll
)

// Pattern is the set of channels crossing the detection threshold in one
// cycle. It is computed once and the angle estimate dispatches on Kind.
type Pattern struct {
	Kind     PatternKind
	Crossing [NumChannels]bool
}

func newPattern(crossing [NumChannels]bool) Pattern {
	n := 0
	for _, c := range crossing {
		if c {
			n++
		}
	}
	p := Pattern{Crossing: crossing}
	switch n {
	case 0:
		p.Kind = PatternNone
	case 1:
		p.Kind = PatternSingle
	case 2:
		p.Kind = PatternPair
	default:
		p.Kind = PatternAll
	}
	return p
}

// Single returns the lone crossing channel. Only meaningful for PatternSingle.
func (p Pattern) Single() Channel {
	for _, ch := range Channels {
		if p.Crossing[ch] {
			return ch
		}
	}
	return Middle
}

// Pair returns the two crossing channels in index order. Only meaningful
// for PatternPair.
func (p Pattern) Pair() (Channel, Channel) {
	var out []Channel
	for _, ch := range Channels {
		if p.Crossing[ch] {
			out = append(out, ch)
		}
	}
	if len(out) != 2 {
		return Right, Left
	}
	return out[0], out[1]
}

// String renders the pattern as e.g. "none", "single(right)", "pair(right+middle)", "all".
func (p Pattern) String() string {
	switch p.Kind {
	case PatternSingle:
		return "single(" + p.Single().String() + ")"
	case PatternPair:
		a, b := p.Pair()
		return "pair(" + strings.Join([]string{a.String(), b.String()}, "+") + ")"
	case PatternAll:
		return "all"
	}
	return "none"
}
