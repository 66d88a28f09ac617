package harmony

import "sort"

// Quality is the matched chord quality.
type Quality string

const (
	QualityMajor    Quality = ""
	QualityMinor    Quality = "m"
	QualityDim      Quality = "dim"
	QualityAug      Quality = "aug"
	QualityMaj7     Quality = "maj7"
	QualityMin7     Quality = "m7"
	QualityDom7     Quality = "7"
	QualityHalfDim7 Quality = "m7b5"
	QualityDim7     Quality = "dim7"
	QualityCluster  Quality = "cluster"
)

// ClusterName is used for pitch sets matching no table entry.
const ClusterName = "pitch cluster"

var pitchClassNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// PitchClassName returns the note name for a pitch class (0-11).
func PitchClassName(pc int) string {
	return pitchClassNames[((pc%12)+12)%12]
}

// identify matches a pitch set against the interval table, trying every
// pitch class as a candidate root and keeping the most specific match.
// Returns the root pitch class, quality and a match score; score 0 means
// the set is an unnamed cluster.
func identify(pitches []int) (root int, q Quality, score int) {
	classes := pitchClasses(pitches)
	if len(classes) < 2 {
		return -1, QualityCluster, 0
	}

	bestRoot, bestQuality, bestScore := -1, QualityCluster, 0
	for _, candidate := range classes {
		has := make(map[int]bool, len(classes))
		for _, pc := range classes {
			has[(pc-candidate+12)%12] = true
		}
		quality, s := matchQuality(has)
		if s > bestScore {
			bestRoot, bestQuality, bestScore = candidate, quality, s
		}
	}
	return bestRoot, bestQuality, bestScore
}

// matchQuality checks interval sets from most to least specific.
// Sevenths outrank triads so a Cmaj7 is not reported as C.
func matchQuality(has map[int]bool) (Quality, int) {
	switch {
	case has[0] && has[4] && has[7] && has[11]:
		return QualityMaj7, 4
	case has[0] && has[3] && has[7] && has[10]:
		return QualityMin7, 4
	case has[0] && has[4] && has[7] && has[10]:
		return QualityDom7, 4
	case has[0] && has[3] && has[6] && has[10]:
		return QualityHalfDim7, 4
	case has[0] && has[3] && has[6] && has[9]:
		return QualityDim7, 4
	case has[0] && has[4] && has[7]:
		return QualityMajor, 3
	case has[0] && has[3] && has[7]:
		return QualityMinor, 3
	case has[0] && has[3] && has[6]:
		return QualityDim, 3
	case has[0] && has[4] && has[8]:
		return QualityAug, 3
	}
	return QualityCluster, 0
}

// chordName renders "Cm7", "Gdim", ... or the generic cluster name.
func chordName(root int, q Quality) string {
	if q == QualityCluster || root < 0 {
		return ClusterName
	}
	return PitchClassName(root) + string(q)
}

// isMinorQuality reports whether the quality lowercases its numeral.
func isMinorQuality(q Quality) bool {
	switch q {
	case QualityMinor, QualityMin7, QualityDim, QualityDim7, QualityHalfDim7:
		return true
	}
	return false
}

// pitchClasses reduces pitches modulo octave, deduplicated and sorted.
func pitchClasses(pitches []int) []int {
	seen := make(map[int]bool)
	for _, p := range pitches {
		seen[((p%12)+12)%12] = true
	}
	classes := make([]int, 0, len(seen))
	for pc := range seen {
		classes = append(classes, pc)
	}
	sort.Ints(classes)
	return classes
}
