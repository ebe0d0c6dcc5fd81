package canonical

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	phoneticAcceptScore = 0.70
	fuzzyAcceptScore    = 0.85
)

// phoneticScorer matches candidate strings to known labels by sound rather
// than meaning. A label becomes a candidate when any Double Metaphone code of
// its tokens overlaps with the input's codes; candidates are ranked by
// Jaro-Winkler similarity. Labels with no phonetic overlap still match when
// their raw string similarity clears a stricter bar.
type phoneticScorer struct{}

func newPhoneticScorer() *phoneticScorer {
	return &phoneticScorer{}
}

func (p *phoneticScorer) match(candidate string, labels []string) (label string, score float64, matched bool) {
	if len(labels) == 0 {
		return "", 0, false
	}

	candLower := strings.ToLower(strings.TrimSpace(candidate))
	candTokens := strings.Fields(candLower)
	candCodes := metaphoneCodes(candTokens)

	var (
		bestLabel    string
		bestScore    float64
		bestPhonetic bool
	)
	for _, l := range labels {
		labelLower := strings.ToLower(strings.TrimSpace(l))
		if labelLower == "" {
			continue
		}
		labelTokens := strings.Fields(labelLower)

		jw := bestJaroWinkler(candTokens, labelTokens, candLower, labelLower)
		phonetic := codesOverlap(candCodes, metaphoneCodes(labelTokens))

		switch {
		case phonetic && jw >= phoneticAcceptScore:
			if !bestPhonetic || jw > bestScore {
				bestLabel, bestScore, bestPhonetic = l, jw, true
			}
		case !phonetic && !bestPhonetic:
			if jw >= fuzzyAcceptScore && jw > bestScore {
				bestLabel, bestScore = l, jw
			}
		}
	}

	if bestLabel == "" {
		return "", 0, false
	}
	return bestLabel, bestScore, true
}

// metaphoneCodes returns the union of Double Metaphone codes over tokens,
// excluding empty codes.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		primary, secondary := matchr.DoubleMetaphone(t)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJaroWinkler compares candidate and label as full strings, with spaces
// stripped, and pairwise per token, taking the highest score.
func bestJaroWinkler(candTokens, labelTokens []string, candFull, labelFull string) float64 {
	score := matchr.JaroWinkler(candFull, labelFull, false)

	if len(candTokens) > 1 || len(labelTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(candTokens, ""), strings.Join(labelTokens, ""), false); s > score {
			score = s
		}
	}
	for _, ct := range candTokens {
		for _, lt := range labelTokens {
			if s := matchr.JaroWinkler(ct, lt, false); s > score {
				score = s
			}
		}
	}
	return score
}
