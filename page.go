package harvest

// PageStatus records how a page's text was obtained.
type PageStatus string

// PageStatus constants.
const (
	PageExtracted PageStatus = "extracted"
	PageOCR       PageStatus = "ocr"
	PageFailed    PageStatus = "failed"
)

// Page is one unit of a document's text. Numbers start at 1.
//
// A failed page has Status PageFailed and Error set; it is distinct from
// a page that was read successfully and happens to be empty.
type Page struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"documentId"`
	Number     int        `json:"number"`
	Text       string     `json:"text"`
	Status     PageStatus `json:"status"`
	Error      string     `json:"error,omitempty"`
}
