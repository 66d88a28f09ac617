package harmony

import (
	"strings"
)

// Function is the coarse harmonic role of a chord within a key.
type Function string

const (
	FunctionTonic       Function = "tonic"
	FunctionSubdominant Function = "subdominant"
	FunctionDominant    Function = "dominant"
	FunctionOther       Function = "other"
)

// CadenceKind tags a chord that resolves a cadential pattern.
type CadenceKind string

const (
	CadenceAuthentic CadenceKind = "authentic" // dominant -> tonic
	CadencePlagal    CadenceKind = "plagal"    // subdominant -> tonic
	CadenceDeceptive CadenceKind = "deceptive" // dominant -> anything but tonic
)

// Key is a parsed key signature: a tonic pitch class plus mode.
type Key struct {
	Tonic int
	Minor bool
}

var noteOffsets = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// ParseKey reads key signatures like "C", "F#", "Bb", "Am", "c minor".
// The second return is false when the string is not a key name.
func ParseKey(s string) (Key, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, false
	}

	var k Key
	rest := s[1:]
	base, ok := noteOffsets[strings.ToUpper(s[:1])]
	if !ok {
		return Key{}, false
	}
	k.Tonic = base

	if strings.HasPrefix(rest, "#") {
		k.Tonic = (k.Tonic + 1) % 12
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "b") {
		k.Tonic = (k.Tonic + 11) % 12
		rest = rest[1:]
	}

	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "":
		// lowercase note letter alone means minor ("c" = C minor)
		k.Minor = s[:1] == strings.ToLower(s[:1])
	case "m", "min", "minor", "-":
		k.Minor = true
	case "maj", "major":
		k.Minor = false
	default:
		return Key{}, false
	}
	return k, true
}

// scale returns the diatonic pitch classes of the key, tonic first.
func (k Key) scale() [7]int {
	steps := [7]int{0, 2, 4, 5, 7, 9, 11} // major
	if k.Minor {
		steps = [7]int{0, 2, 3, 5, 7, 8, 10} // natural minor
	}
	var out [7]int
	for i, s := range steps {
		out[i] = (k.Tonic + s) % 12
	}
	return out
}

// degree returns the 1-based scale degree of a pitch class, or 0 when the
// pitch class is not diatonic.
func (k Key) degree(pc int) int {
	for i, s := range k.scale() {
		if s == pc {
			return i + 1
		}
	}
	return 0
}

var numerals = [7]string{"I", "II", "III", "IV", "V", "VI", "VII"}

// romanNumeral renders the scale-degree label for a named chord root,
// lowercased for minor and diminished qualities, with quality suffixes.
// Non-diatonic roots have no numeral.
func (k Key) romanNumeral(root int, q Quality) (string, bool) {
	deg := k.degree(root)
	if deg == 0 || q == QualityCluster {
		return "", false
	}
	n := numerals[deg-1]
	if isMinorQuality(q) {
		n = strings.ToLower(n)
	}
	switch q {
	case QualityDim:
		n += "°"
	case QualityDim7:
		n += "°7"
	case QualityHalfDim7:
		n += "ø7"
	case QualityAug:
		n += "+"
	case QualityMaj7:
		n += "maj7"
	case QualityDom7, QualityMin7:
		n += "7"
	}
	return n, true
}

// function maps a diatonic scale degree to its coarse harmonic role.
func (k Key) function(root int) (Function, bool) {
	switch k.degree(root) {
	case 0:
		return "", false
	case 1:
		return FunctionTonic, true
	case 2, 4:
		return FunctionSubdominant, true
	case 5, 7:
		return FunctionDominant, true
	default:
		return FunctionOther, true
	}
}

// tagCadences scans consecutive chord pairs for cadential root motion
// and function patterns, tagging the arrival chord.
func tagCadences(chords []Chord) {
	for i := 1; i < len(chords); i++ {
		prev, cur := &chords[i-1], &chords[i]
		if prev.Function == nil || cur.Function == nil {
			continue
		}
		switch {
		case *prev.Function == FunctionDominant && *cur.Function == FunctionTonic &&
			rootMotion(prev.Root, cur.Root, 5):
			tag(cur, CadenceAuthentic)
		case *prev.Function == FunctionSubdominant && *cur.Function == FunctionTonic &&
			rootMotion(prev.Root, cur.Root, 7):
			tag(cur, CadencePlagal)
		case *prev.Function == FunctionDominant && *cur.Function != FunctionTonic &&
			*cur.Function != FunctionDominant:
			tag(cur, CadenceDeceptive)
		}
	}
}

// rootMotion reports whether the second root lies the given number of
// semitones above the first, modulo octave.
func rootMotion(from, to, semitones int) bool {
	if from < 0 || to < 0 {
		return false
	}
	return (from+semitones)%12 == to%12
}

func tag(c *Chord, k CadenceKind) {
	c.Cadence = &k
}
