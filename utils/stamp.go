package utils

import (
	"log"
	"strings"

	"github.com/kraimines/ticketocr/dto"
)

// CanonicalStampName is the single name a fiscal stamp line carries once a
// ticket is final.
const CanonicalStampName = "TIMBRE FISCAL"

// stampKeywords identify fiscal stamp lines by name.
var stampKeywords = []string{"timbre", "fiscal", "taxe", "stamp"}

// NormalizeFiscalStamp canonicalizes the fiscal stamp line of a ticket, if
// present. Items are scanned in order and only the first match is altered:
// tickets are assumed to carry at most one stamp line, so a genuine second
// stamp with a different value is left untouched.
//
// Rules, first match wins:
//  1. a known stamp amount under a non-stamp name gets renamed;
//  2. the "100 DT" OCR misread of a keyword-named stamp gets both price and
//     name rewritten;
//  3. any other stamp-keyword name gets the canonical name, price untouched.
func NormalizeFiscalStamp(ticket *dto.ExtractedTicket) {
	for i := range ticket.Articles {
		name := strings.ToLower(ticket.Articles[i].Nom)
		price := ticket.Articles[i].Prix

		if LooksLikeFiscalStamp(price) &&
			!strings.Contains(name, "timbre") && !strings.Contains(name, "fiscal") {
			ticket.Articles[i].Nom = CanonicalStampName
			log.Printf("Fiscal stamp renamed: %q -> %s", name, CanonicalStampName)
			return
		}

		if price == "100 DT" && containsStampKeyword(name) {
			// Raw un-decimalized OCR misread of the stamp amount.
			ticket.Articles[i].Prix = "0.100 DT"
			ticket.Articles[i].Nom = CanonicalStampName
			log.Printf("Fiscal stamp amount converted: 100 DT -> 0.100 DT")
			return
		}

		if containsStampKeyword(name) {
			ticket.Articles[i].Nom = CanonicalStampName
			return
		}
	}
}

func containsStampKeyword(lowerName string) bool {
	for _, kw := range stampKeywords {
		if strings.Contains(lowerName, kw) {
			return true
		}
	}
	return false
}
