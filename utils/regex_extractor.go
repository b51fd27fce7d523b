package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kraimines/ticketocr/dto"
)

var (
	// datePattern is deliberately permissive on digit counts (day up to 39,
	// month up to 19); real calendar validation happens afterwards.
	datePattern = regexp.MustCompile(`\b([0-3]?\d)[/-]([0-1]?\d)[/-](\d{4})\b`)

	totalPattern = regexp.MustCompile(`(?i)total\s*[:\-]?\s*(\d+\.\d{2,3})\s?DT`)
)

// forbiddenArticleTokens mark a line as a non-article (payment, change,
// discount, stamp...). A match suppresses the whole line: stamp lines are
// surfaced through the LLM path and the stamp normalizer, never through here.
var forbiddenArticleTokens = []string{
	"espece", "rendu", "recu", "total", "remise",
	"timbre", "fiscal", "taxe", "stamp", "pece",
}

// ExtractDates returns every calendar-valid date found in text, normalized to
// DD/MM/YYYY, in order of appearance. Impossible dates (31/02/2025) are
// silently dropped.
func ExtractDates(text string) []string {
	var dates []string
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		t, err := time.Parse("2/1/2006", m[1]+"/"+m[2]+"/"+m[3])
		if err != nil {
			continue
		}
		dates = append(dates, t.Format("02/01/2006"))
	}
	return dates
}

// ExtractTotal returns the first "Total: X.XXX DT" amount found in text,
// formatted to three decimals, or "" when no total line matches. A single
// search: later total lines never override the first.
func ExtractTotal(text string) string {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v, err := ParseAmount(m[1])
	if err != nil {
		return ""
	}
	return FormatAmount(v)
}

// ExtractArticles scans text line by line for "name amount" pairs. Lines
// whose candidate name contains a forbidden token are discarded entirely.
// The recorded name keeps its original case.
func ExtractArticles(text string) []dto.Article {
	var articles []dto.Article
	for _, line := range strings.Split(text, "\n") {
		loc := amountPattern.FindStringIndex(line)
		if loc == nil {
			continue
		}
		name := strings.TrimSpace(line[:loc[0]])
		lower := strings.ToLower(name)

		suppressed := false
		for _, token := range forbiddenArticleTokens {
			if strings.Contains(lower, token) {
				suppressed = true
				break
			}
		}
		if suppressed {
			continue
		}

		articles = append(articles, dto.Article{Nom: name, Prix: line[loc[0]:loc[1]]})
	}
	return articles
}

// ComputeCoherence sums the parseable article prices and compares the sum to
// the detected total within a one-cent tolerance. Unparseable prices count
// as zero; an absent total is never coherent.
func ComputeCoherence(articles []dto.Article, total string) (float64, bool) {
	var sum float64
	for _, a := range articles {
		if v, err := ParseAmount(a.Prix); err == nil {
			sum += v
		}
	}

	totalValue, err := ParseAmount(total)
	if total == "" || err != nil {
		return sum, false
	}

	diff := sum - totalValue
	if diff < 0 {
		diff = -diff
	}
	return sum, diff < 0.01
}

// BuildReport runs the full regex extraction over raw OCR text. It never
// fails: unmatched patterns yield empty collections, and empty input yields
// an empty report.
func BuildReport(text string) dto.RegexReport {
	var stamps []string
	for _, amount := range ExtractAllAmounts(text) {
		if LooksLikeFiscalStamp(amount) {
			stamps = append(stamps, amount)
		}
	}

	articles := ExtractArticles(text)
	total := ExtractTotal(text)
	sum, coherent := ComputeCoherence(articles, total)

	report := dto.RegexReport{
		Dates:           ExtractDates(text),
		StampCandidates: stamps,
		Total:           total,
		Articles:        articles,
		ItemsSum:        FormatAmount(sum),
		TotalCoherent:   coherent,
	}
	if total != "" && !coherent {
		report.Alert = fmt.Sprintf(
			"Attention: la somme des articles (%s) ne correspond pas au total (%s)!",
			report.ItemsSum, total)
	}
	return report
}
