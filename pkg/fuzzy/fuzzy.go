// Package fuzzy provides approximate substring matching over transcribed
// text. Scores use a 0-100 scale derived from normalized edit distance.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

const (
	// DefaultThreshold is the minimum score considered a usable match.
	DefaultThreshold = 80.0

	// trailingPunct extends a matched window over punctuation the
	// upstream transcriber tends to append after the matched text.
	trailingPunct = ".!?,;:"

	// Whole-string comparison short-circuits the window search when the
	// two strings are close in length and nearly identical.
	fullTextMaxLenDiff = 10
	fullTextMinRatio   = 88.0

	// Word-subsequence matching tolerates insertions between matched
	// words up to this many source words, and requires this share of
	// target words to be found.
	maxWordGap      = 10
	minWordCoverage = 0.8

	tieEpsilon = 1e-9
)

// Match locates a window of the source string, as byte offsets.
type Match struct {
	Start int
	End   int
	Score float64
}

// Matcher finds and removes the best-aligned occurrence of one string
// inside another. The zero threshold falls back to DefaultThreshold.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the minimum accepted match score.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Ratio computes whole-string similarity on a 0-100 scale.
func Ratio(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil) * 100
}

// BestMatch finds the window of source that best aligns with target.
// The returned score may be below the matcher threshold; callers decide
// what to do with weak alignments. ok is false only when either string
// is empty after trimming.
func (m *Matcher) BestMatch(target, source string) (Match, bool) {
	target = strings.TrimSpace(target)
	if target == "" || source == "" {
		return Match{}, false
	}

	if idx := indexFold(source, target); idx >= 0 {
		end := extendTrailingPunct(source, idx+len(target))
		return Match{Start: idx, End: end, Score: 100}, true
	}

	if diff := len(target) - len(source); diff >= -fullTextMaxLenDiff && diff <= fullTextMaxLenDiff {
		if r := foldRatio(target, source); r >= fullTextMinRatio {
			return Match{Start: 0, End: len(source), Score: r}, true
		}
	}

	if match, ok := m.wordGapMatch(target, source); ok && match.Score >= m.threshold {
		return match, true
	}

	return m.slidingMatch(target, source)
}

// RemoveMatch removes the best-matching window of target from source
// and re-joins the remainder with single-space hygiene. When no window
// reaches the threshold the source is returned unchanged.
func (m *Matcher) RemoveMatch(source, target string) (string, bool) {
	match, ok := m.BestMatch(target, source)
	if !ok || match.Score < m.threshold {
		return source, false
	}

	before := strings.TrimRight(source[:match.Start], " ")
	after := strings.TrimLeft(source[match.End:], " ")

	var remainder string
	switch {
	case before == "":
		remainder = after
	case after == "":
		remainder = before
	default:
		remainder = before + " " + after
	}

	for strings.Contains(remainder, "  ") {
		remainder = strings.ReplaceAll(remainder, "  ", " ")
	}
	return strings.TrimSpace(remainder), true
}

// wordGapMatch reconstructs target as an in-order subsequence of source
// words, tolerating runs of inserted filler words between matches. The
// match ends on a word boundary.
func (m *Matcher) wordGapMatch(target, source string) (Match, bool) {
	tw := splitWords(target)
	sw := splitWords(source)
	if len(tw) == 0 || len(sw) == 0 {
		return Match{}, false
	}

	tn := make([]string, len(tw))
	for i, w := range tw {
		tn[i] = normalizeWord(w.text)
	}
	sn := make([]string, len(sw))
	for i, w := range sw {
		sn[i] = normalizeWord(w.text)
	}

	best := Match{Score: -1}
	for startIdx := range sn {
		if sn[startIdx] != tn[0] {
			continue
		}
		matched := 1
		lastIdx := startIdx
		next := startIdx + 1
		for ti := 1; ti < len(tn); ti++ {
			found := -1
			for j := next; j < len(sn) && j <= next+maxWordGap; j++ {
				if sn[j] == tn[ti] {
					found = j
					break
				}
			}
			if found < 0 {
				continue
			}
			matched++
			lastIdx = found
			next = found + 1
		}

		coverage := float64(matched) / float64(len(tn))
		if coverage < minWordCoverage {
			continue
		}
		score := coverage * 100
		if score > best.Score+tieEpsilon {
			best = Match{Start: sw[startIdx].start, End: sw[lastIdx].end, Score: score}
		}
	}

	if best.Score < 0 {
		return Match{}, false
	}
	best.End = extendTrailingPunct(source, best.End)
	return best, true
}

// slidingMatch scores fixed-size windows of source against target,
// anchored at word starts. The earliest window wins ties.
func (m *Matcher) slidingMatch(target, source string) (Match, bool) {
	lt, ls := foldPair(target, source)

	if len(lt) >= len(ls) {
		return Match{Start: 0, End: len(source), Score: Ratio(lt, ls)}, true
	}

	starts := windowStarts(source, len(lt))
	best := Match{Score: -1}
	for _, start := range starts {
		end := start + len(lt)
		if end > len(ls) {
			end = len(ls)
		}
		score := Ratio(lt, ls[start:end])
		if score > best.Score+tieEpsilon {
			best = Match{Start: start, End: end, Score: score}
		}
		if best.Score >= 100 {
			break
		}
	}
	if best.Score < 0 {
		return Match{}, false
	}
	best.End = extendTrailingPunct(source, best.End)
	return best, true
}

type wordSpan struct {
	start int
	end   int
	text  string
}

func splitWords(s string) []wordSpan {
	var out []wordSpan
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, wordSpan{start, i, s[start:i]})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, wordSpan{start, len(s), s[start:]})
	}
	return out
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.Trim(w, trailingPunct+`"'()[]`))
}

// windowStarts yields candidate window anchors: offset zero plus every
// word start that still fits a full window, then the final tail anchor.
func windowStarts(s string, window int) []int {
	starts := []int{0}
	for _, w := range splitWords(s) {
		if w.start == 0 {
			continue
		}
		if w.start+window <= len(s) {
			starts = append(starts, w.start)
		}
	}
	if tail := len(s) - window; tail > 0 && starts[len(starts)-1] != tail {
		starts = append(starts, tail)
	}
	return starts
}

func extendTrailingPunct(s string, end int) int {
	for end < len(s) && strings.ContainsRune(trailingPunct, rune(s[end])) {
		end++
	}
	return end
}

// indexFold is a case-insensitive substring search that preserves byte
// offsets. Folding is skipped when lowercasing changes byte lengths.
func indexFold(s, sub string) int {
	if idx := strings.Index(s, sub); idx >= 0 {
		return idx
	}
	ls, lsub := strings.ToLower(s), strings.ToLower(sub)
	if len(ls) == len(s) && len(lsub) == len(sub) {
		return strings.Index(ls, lsub)
	}
	return -1
}

func foldRatio(a, b string) float64 {
	la, lb := foldPair(a, b)
	return Ratio(la, lb)
}

func foldPair(a, b string) (string, string) {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if len(la) != len(a) || len(lb) != len(b) {
		return a, b
	}
	return la, lb
}
