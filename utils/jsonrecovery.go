package utils

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kraimines/ticketocr/dto"
)

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	angleTagPattern   = regexp.MustCompile(`<[^>]*>`)
	newlineRunPattern = regexp.MustCompile(`\n+`)
	spaceRunPattern   = regexp.MustCompile(`\s+`)

	singleQuotePattern   = regexp.MustCompile(`'([^']*)'`)
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)

	// balancedBracePattern matches objects with one level of nesting; deeper
	// candidates are handled by the pairwise brace scan before this fallback.
	balancedBracePattern = regexp.MustCompile(`\{(?:[^{}]|\{[^{}]*\})*\}`)
)

// recoveryKeys is the field set a recovered object is scored against. A
// candidate needs at least two of these to be accepted as the ticket payload.
var recoveryKeys = []string{"Magasin", "Date", "NumeroTicket", "Articles", "Total"}

// RecoverJSON extracts the best-effort embedded JSON object from a raw LLM
// response. The response may carry a reasoning preamble, prose around the
// payload, single-quoted or unquoted keys, and trailing commas. Returns
// dto.ErrNoJSONFound when no fallback tier recovers an acceptable object.
func RecoverJSON(raw string) (map[string]interface{}, error) {
	return recoverJSON(raw, true)
}

// RecoverJSONLoose is the multi-candidate variant: it skips the whitespace
// collapse so candidate boundaries in multi-object text are preserved.
func RecoverJSONLoose(raw string) (map[string]interface{}, error) {
	return recoverJSON(raw, false)
}

func recoverJSON(raw string, collapseWhitespace bool) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, dto.ErrNoJSONFound
	}

	// Reasoning markup is never the payload.
	text := thinkBlockPattern.ReplaceAllString(raw, "")
	text = angleTagPattern.ReplaceAllString(text, "")
	if collapseWhitespace {
		text = newlineRunPattern.ReplaceAllString(text, "\n")
		text = spaceRunPattern.ReplaceAllString(text, " ")
	}
	text = strings.TrimSpace(text)

	starts := indexesOf(text, '{')
	ends := indexesOf(text, '}')
	if len(starts) == 0 || len(ends) == 0 {
		return nil, dto.ErrNoJSONFound
	}

	// Outermost braces first: the common case of one object wrapped in prose.
	if outer := tryCandidate(text[starts[0] : ends[len(ends)-1]+1]); outer != nil {
		if scoreKeys(outer) >= 2 {
			return outer, nil
		}
	}

	// Every (start, end) pair, best score wins, longest candidate breaks ties.
	var best map[string]interface{}
	bestScore, bestLen := 0, 0
	for _, start := range starts {
		for _, end := range ends {
			if end <= start {
				continue
			}
			candidate := tryCandidate(text[start : end+1])
			if candidate == nil {
				continue
			}
			score := scoreKeys(candidate)
			length := end - start
			if score >= 2 && (score > bestScore || (score == bestScore && length > bestLen)) {
				best = candidate
				bestScore = score
				bestLen = length
			}
		}
	}
	if best != nil {
		return best, nil
	}

	// Balanced-brace scan, last match first: the final object in a reasoning
	// trace is the most likely to be the complete answer.
	matches := balancedBracePattern.FindAllString(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if candidate := tryCandidate(matches[i]); candidate != nil && scoreKeys(candidate) >= 2 {
			return candidate, nil
		}
	}

	// Last resort: walk backward from the final '}' to its matching '{'.
	if candidate := tryCandidate(lastBalancedObject(text)); candidate != nil && scoreKeys(candidate) >= 2 {
		return candidate, nil
	}

	return nil, dto.ErrNoJSONFound
}

// tryCandidate applies light repair (single quotes, trailing commas) and
// strict parsing; only mapping results are kept.
func tryCandidate(s string) map[string]interface{} {
	if s == "" {
		return nil
	}
	cleaned := strings.TrimSpace(s)
	cleaned = singleQuotePattern.ReplaceAllString(cleaned, `"$1"`)
	cleaned = trailingCommaPattern.ReplaceAllString(cleaned, "$1")

	var parsed interface{}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil
	}
	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil
	}
	return obj
}

func scoreKeys(obj map[string]interface{}) int {
	score := 0
	for _, key := range recoveryKeys {
		if _, ok := obj[key]; ok {
			score++
		}
	}
	return score
}

func indexesOf(s string, c byte) []int {
	var idx []int
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			idx = append(idx, i)
		}
	}
	return idx
}

// lastBalancedObject finds the last '}' in text and walks backward counting
// brace depth to its matching '{'. Returns "" when nothing balances.
func lastBalancedObject(text string) string {
	last := strings.LastIndexByte(text, '}')
	if last <= 0 {
		return ""
	}
	depth := 0
	for i := last; i >= 0; i-- {
		switch text[i] {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				return text[i : last+1]
			}
		}
	}
	return ""
}
