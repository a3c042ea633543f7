package llm

import (
	"strconv"
	"strings"
)

// Degeneration thresholds.
const (
	fourGramRepeatLimit    = 8
	longSubstringMinLength = 30
	longSubstringRepeatMin = 5
	unterminatedMinLength  = 3_000
)

// detectDegeneration scans emitted text for the three repetition/truncation
// patterns that mark a model stuck in a decoding loop. It returns a
// non-empty reason on the first pattern matched; callers treat any non-empty
// reason as resilience.KindDegeneration.
func detectDegeneration(text string) string {
	if reason := fourGramRepeat(text); reason != "" {
		return reason
	}
	if reason := longSubstringRepeat(text); reason != "" {
		return reason
	}
	if reason := unterminatedJSON(text); reason != "" {
		return reason
	}
	return ""
}

// fourGramRepeat flags a whitespace-tokenized 4-gram that recurs more than
// fourGramRepeatLimit times — the signature of a model looping over the same
// few words.
func fourGramRepeat(text string) string {
	words := strings.Fields(text)
	if len(words) < 4 {
		return ""
	}

	counts := make(map[string]int, len(words))
	for i := 0; i+4 <= len(words); i++ {
		gram := strings.Join(words[i:i+4], " ")
		counts[gram]++
		if counts[gram] > fourGramRepeatLimit {
			return "4-gram repeated more than " + strconv.Itoa(fourGramRepeatLimit) + " times"
		}
	}
	return ""
}

// longSubstringRepeat flags a longSubstringMinLength-character window that
// recurs more than longSubstringRepeatMin times. Windows are taken at a fixed
// stride of longSubstringMinLength (non-overlapping), which keeps the scan
// linear in output length. A repeated block is caught only when its repeats
// land on the same stride offsets; repeats at other alignments are not
// counted as matches.
func longSubstringRepeat(text string) string {
	if len(text) < longSubstringMinLength*2 {
		return ""
	}

	counts := make(map[string]int)
	for i := 0; i+longSubstringMinLength <= len(text); i += longSubstringMinLength {
		window := text[i : i+longSubstringMinLength]
		counts[window]++
		if counts[window] > longSubstringRepeatMin {
			return "substring of length " + strconv.Itoa(longSubstringMinLength) + " repeated more than " + strconv.Itoa(longSubstringRepeatMin) + " times"
		}
	}
	return ""
}

// unterminatedJSON flags output long enough to be a real attempt at the
// schema's object but that never closes its outermost brace — the model ran
// out of budget mid-loop rather than finishing cleanly.
func unterminatedJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= unterminatedMinLength {
		return ""
	}
	if strings.HasSuffix(trimmed, "}") {
		return ""
	}
	return "output exceeds " + strconv.Itoa(unterminatedMinLength) + " chars without a closing brace"
}
