package docpipe

// Format identifies how a document's bytes map to editable content.
type Format string

const (
	// FormatText is raw UTF-8; its editable form is the text itself.
	FormatText Format = "txt"
	// FormatRich is a Word container; its editable form is sanitized markup.
	FormatRich Format = "docx"
)

// Direction selects which half of a converter pair a Request runs.
type Direction int

const (
	// Decode turns persisted bytes into editable content.
	Decode Direction = iota
	// Encode turns editable content into persisted bytes.
	Encode
)

func (d Direction) String() string {
	switch d {
	case Decode:
		return "decode"
	case Encode:
		return "encode"
	default:
		return "unknown"
	}
}

// Request is a single conversion, built per open or save and discarded.
// Data is read for Decode, Content for Encode.
type Request struct {
	Direction Direction
	Format    Format
	Data      []byte
	Content   string
}

// Result carries the output of a Request. Exactly one of Document or Data
// is set, according to the request direction.
type Result struct {
	Document *Document
	Data     []byte
}

// Document is decoded, renderable content.
type Document struct {
	Format  Format `json:"format"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"` // text for FormatText, markup for FormatRich
}
