package dto

// OCR engine identifiers used in RawOcrBundle and provenance comments.
const (
	EngineDoctr     = "doctr"
	EngineTesseract = "tesseract"
	EngineDocling   = "docling"
)

// RawOcrBundle holds the raw text produced by the three OCR engines for one
// uploaded receipt. Each field is either extracted text or an engine error
// message; an engine failure never aborts the analysis.
type RawOcrBundle struct {
	Doctr     string `json:"doctr"`
	Tesseract string `json:"tesseract"`
	Docling   string `json:"docling"`
}

// Combined merges the three texts in engine order, newline separated. This is
// the text fed to the regex extractor alongside the LLM result.
func (b RawOcrBundle) Combined() string {
	return b.Doctr + "\n" + b.Tesseract + "\n" + b.Docling
}

// IsEmpty reports whether no engine produced any text.
func (b RawOcrBundle) IsEmpty() bool {
	return b.Doctr == "" && b.Tesseract == "" && b.Docling == ""
}

// Article is a single receipt line item. Prix is an amount string in the
// canonical "<digits>.<2-3 digits> DT" form.
type Article struct {
	Nom  string `json:"nom"`
	Prix string `json:"prix"`
}

// ExtractedTicket is the structured result of one receipt analysis.
// Date stays a free-text string at this layer; format normalization happens
// at the persistence boundary.
type ExtractedTicket struct {
	Magasin      string            `json:"Magasin"`
	NumeroTicket string            `json:"NumeroTicket"`
	Date         string            `json:"Date"`
	Articles     []Article         `json:"Articles"`
	Total        string            `json:"Total"`
	Commentaire  string            `json:"Commentaire,omitempty"`
	Validation   *ValidationReport `json:"ValidationRegex,omitempty"`
}

// ValidationReport is the regex coherence check attached to every analyzed
// ticket. It is diagnostic: persistence never depends on it.
type ValidationReport struct {
	TotalCoherent bool   `json:"total_coherent"`
	ItemsSum      string `json:"somme_articles"`
	DetectedTotal string `json:"total_detecte"`
	Alert         string `json:"alerte,omitempty"`
}

// RegexReport is the aggregate output of the regex extractor over raw OCR
// text. It doubles as the full fallback result when every LLM tier fails.
type RegexReport struct {
	Dates           []string  `json:"dates_valides"`
	StampCandidates []string  `json:"timbres_fiscaux"`
	Total           string    `json:"total"`
	Articles        []Article `json:"articles"`
	ItemsSum        string    `json:"somme_articles"`
	TotalCoherent   bool      `json:"total_coherent"`
	Alert           string    `json:"alerte,omitempty"`
}
