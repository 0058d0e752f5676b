package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	// emuPerPixel converts DrawingML extents (English Metric Units) to CSS pixels.
	emuPerPixel = 9525

	// maxXMLDepth bounds element nesting in document.xml.
	maxXMLDepth = 256
)

// docxPackage indexes the parts of an opened container.
type docxPackage struct {
	files map[string]*zip.File
}

func openDocx(data []byte) (*docxPackage, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	pkg := &docxPackage{files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		pkg.files[f.Name] = f
	}
	return pkg, nil
}

func (pkg *docxPackage) has(name string) bool {
	_, ok := pkg.files[name]
	return ok
}

func (pkg *docxPackage) open(name string) (io.ReadCloser, error) {
	f, ok := pkg.files[name]
	if !ok {
		return nil, fmt.Errorf("%s not found in archive", name)
	}
	return f.Open()
}

func (pkg *docxPackage) read(name string) ([]byte, error) {
	rc, err := pkg.open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// decodeDocx parses a .docx container into editor markup. Only content and
// coarse formatting survive: headings, paragraphs, alignment, lists, bold,
// italic, underline, strike, text and highlight colors, links and embedded
// images.
func decodeDocx(data []byte) (string, string, error) {
	pkg, err := openDocx(data)
	if err != nil {
		return "", "", err
	}
	if !pkg.has("word/document.xml") {
		return "", "", errors.New("word/document.xml not found in archive")
	}

	rels, err := pkg.relationships("word/_rels/document.xml.rels")
	if err != nil {
		return "", "", err
	}
	lists, err := pkg.numbering()
	if err != nil {
		return "", "", err
	}

	rc, err := pkg.open("word/document.xml")
	if err != nil {
		return "", "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	w := &docxReader{pkg: pkg, rels: rels, lists: lists}
	if err := w.read(xml.NewDecoder(rc)); err != nil {
		return "", "", fmt.Errorf("parse document.xml: %w", err)
	}

	title := pkg.coreTitle()
	if title == "" {
		title = w.title
	}
	return title, w.out.String(), nil
}

// relationship is one entry of a .rels part.
type relationship struct {
	Target   string
	External bool
}

func (pkg *docxPackage) relationships(name string) (map[string]relationship, error) {
	rels := make(map[string]relationship)
	if !pkg.has(name) {
		return rels, nil
	}
	data, err := pkg.read(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var doc struct {
		Relationships []struct {
			ID         string `xml:"Id,attr"`
			Target     string `xml:"Target,attr"`
			TargetMode string `xml:"TargetMode,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	for _, r := range doc.Relationships {
		rels[r.ID] = relationship{Target: r.Target, External: r.TargetMode == "External"}
	}
	return rels, nil
}

// numbering maps numId to whether the list is ordered.
func (pkg *docxPackage) numbering() (map[string]bool, error) {
	ordered := make(map[string]bool)
	if !pkg.has("word/numbering.xml") {
		return ordered, nil
	}
	data, err := pkg.read("word/numbering.xml")
	if err != nil {
		return nil, fmt.Errorf("read numbering.xml: %w", err)
	}
	var doc struct {
		Abstract []struct {
			ID     string `xml:"abstractNumId,attr"`
			Levels []struct {
				Ilvl   string `xml:"ilvl,attr"`
				NumFmt struct {
					Val string `xml:"val,attr"`
				} `xml:"numFmt"`
			} `xml:"lvl"`
		} `xml:"abstractNum"`
		Nums []struct {
			ID       string `xml:"numId,attr"`
			Abstract struct {
				Val string `xml:"val,attr"`
			} `xml:"abstractNumId"`
		} `xml:"num"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse numbering.xml: %w", err)
	}
	abstract := make(map[string]bool)
	for _, a := range doc.Abstract {
		for _, l := range a.Levels {
			if l.Ilvl == "0" {
				abstract[a.ID] = l.NumFmt.Val != "bullet" && l.NumFmt.Val != "none"
			}
		}
	}
	for _, n := range doc.Nums {
		ordered[n.ID] = abstract[n.Abstract.Val]
	}
	return ordered, nil
}

// coreTitle returns dc:title from docProps/core.xml, or "".
func (pkg *docxPackage) coreTitle() string {
	if !pkg.has("docProps/core.xml") {
		return ""
	}
	data, err := pkg.read("docProps/core.xml")
	if err != nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if xml.Unmarshal(data, &core) != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// docxParagraph accumulates the rendered inline markup of one w:p.
type docxParagraph struct {
	style string
	align string
	numID string
	ilvl  int
	list  bool

	body  strings.Builder
	plain strings.Builder

	link *strings.Builder
	href string
}

func (p *docxParagraph) sink() *strings.Builder {
	if p.link != nil {
		return p.link
	}
	return &p.body
}

// docxRun accumulates one w:r.
type docxRun struct {
	bold, italic, underline, strike bool
	color, background              string
	vertAlign                      string

	content strings.Builder
}

func (r *docxRun) render(out *strings.Builder) {
	if r.content.Len() == 0 {
		return
	}
	var styles []string
	if r.color != "" {
		styles = append(styles, "color: "+r.color)
	}
	if r.background != "" {
		styles = append(styles, "background-color: "+r.background)
	}

	var closers []string
	if len(styles) > 0 {
		out.WriteString(`<span style="` + html.EscapeString(strings.Join(styles, "; ")) + `">`)
		closers = append(closers, "</span>")
	}
	for _, w := range []struct {
		on  bool
		tag string
	}{
		{r.bold, "strong"}, {r.italic, "em"}, {r.underline, "u"}, {r.strike, "s"},
		{r.vertAlign == "superscript", "sup"}, {r.vertAlign == "subscript", "sub"},
	} {
		if w.on {
			out.WriteString("<" + w.tag + ">")
			closers = append(closers, "</"+w.tag+">")
		}
	}
	out.WriteString(r.content.String())
	for i := len(closers) - 1; i >= 0; i-- {
		out.WriteString(closers[i])
	}
}

// docxReader streams word/document.xml into markup.
type docxReader struct {
	pkg   *docxPackage
	rels  map[string]relationship
	lists map[string]bool

	out      strings.Builder
	openList string // "ul", "ol" or ""
	title    string

	para   *docxParagraph
	run    *docxRun
	inText bool
	skip   int // depth inside ignored subtrees

	extentW, extentH int
	sawBody          bool
}

func (w *docxReader) read(dec *xml.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return fmt.Errorf("nesting depth exceeds %d", maxXMLDepth)
			}
			if w.skip > 0 {
				w.skip++
				continue
			}
			w.start(t)
		case xml.EndElement:
			depth--
			if w.skip > 0 {
				w.skip--
				continue
			}
			w.end(t)
		case xml.CharData:
			if w.skip == 0 && w.inText && w.run != nil {
				w.run.content.WriteString(html.EscapeString(string(t)))
				w.para.plain.Write(t)
			}
		}
	}
	if !w.sawBody {
		return errors.New("w:body not found")
	}
	w.closeList()
	return nil
}

func (w *docxReader) start(t xml.StartElement) {
	switch t.Name.Local {
	case "body":
		w.sawBody = true
	case "txbxContent", "del", "Fallback":
		w.skip = 1
	case "p":
		if w.para == nil && t.Name.Space != nsA {
			w.para = &docxParagraph{}
		}
	case "pStyle":
		if w.para != nil {
			w.para.style = attr(t, "val")
		}
	case "jc":
		if w.para != nil && w.run == nil {
			w.para.align = attr(t, "val")
		}
	case "numPr":
		if w.para != nil {
			w.para.list = true
		}
	case "numId":
		if w.para != nil {
			w.para.numID = attr(t, "val")
		}
	case "ilvl":
		if w.para != nil {
			w.para.ilvl, _ = strconv.Atoi(attr(t, "val"))
		}
	case "hyperlink":
		if w.para != nil {
			if rel, ok := w.rels[attr(t, "id")]; ok && rel.External {
				w.para.link = &strings.Builder{}
				w.para.href = rel.Target
			}
		}
	case "r":
		if w.para != nil {
			w.run = &docxRun{}
		}
	case "b":
		if w.run != nil {
			w.run.bold = toggle(t)
		}
	case "i":
		if w.run != nil {
			w.run.italic = toggle(t)
		}
	case "u":
		if w.run != nil {
			v := attr(t, "val")
			w.run.underline = v != "none" && v != "0" && v != "false"
		}
	case "strike", "dstrike":
		if w.run != nil {
			w.run.strike = toggle(t)
		}
	case "color":
		if w.run != nil {
			w.run.color = hexColor(attr(t, "val"))
		}
	case "highlight":
		if w.run != nil {
			w.run.background = highlightColor(attr(t, "val"))
		}
	case "shd":
		if w.run != nil && w.run.background == "" {
			w.run.background = hexColor(attr(t, "fill"))
		}
	case "vertAlign":
		if w.run != nil {
			w.run.vertAlign = attr(t, "val")
		}
	case "t":
		w.inText = true
	case "tab":
		if w.run != nil {
			w.run.content.WriteByte('\t')
			w.para.plain.WriteByte('\t')
		}
	case "br", "cr":
		if w.run != nil {
			w.run.content.WriteString("<br>")
			w.para.plain.WriteByte('\n')
		}
	case "extent":
		w.extentW = emuToPixels(attr(t, "cx"))
		w.extentH = emuToPixels(attr(t, "cy"))
	case "blip":
		if w.run != nil {
			w.image(attr(t, "embed"))
		}
	}
}

func (w *docxReader) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		w.inText = false
	case "r":
		if w.run != nil && w.para != nil {
			w.run.render(w.para.sink())
		}
		w.run = nil
	case "hyperlink":
		if w.para != nil && w.para.link != nil {
			inner := w.para.link.String()
			w.para.link = nil
			if inner != "" {
				w.para.body.WriteString(`<a href="` + html.EscapeString(w.para.href) + `">` + inner + `</a>`)
			}
		}
	case "drawing":
		w.extentW, w.extentH = 0, 0
	case "p":
		if w.para != nil && t.Name.Space != nsA {
			w.flushParagraph()
			w.para = nil
		}
	}
}

func (w *docxReader) flushParagraph() {
	p := w.para
	inner := p.body.String()
	class := paragraphClass(p.align, p.ilvl)

	if level := docxHeadingLevel(p.style); level > 0 {
		w.closeList()
		if w.title == "" {
			w.title = strings.TrimSpace(p.plain.String())
		}
		if inner == "" {
			inner = "<br>"
		}
		tag := "h" + strconv.Itoa(level)
		w.out.WriteString("<" + tag + class + ">" + inner + "</" + tag + ">")
		return
	}

	if p.list {
		kind := "ul"
		if w.lists[p.numID] {
			kind = "ol"
		}
		if w.openList != kind {
			w.closeList()
			w.out.WriteString("<" + kind + ">")
			w.openList = kind
		}
		w.out.WriteString("<li" + class + ">" + inner + "</li>")
		return
	}

	w.closeList()
	if inner == "" {
		inner = "<br>"
	}
	w.out.WriteString("<p" + class + ">" + inner + "</p>")
}

func (w *docxReader) closeList() {
	if w.openList != "" {
		w.out.WriteString("</" + w.openList + ">")
		w.openList = ""
	}
}

// image embeds the media part referenced by relID as a data URI.
func (w *docxReader) image(relID string) {
	rel, ok := w.rels[relID]
	if !ok || rel.External {
		return
	}
	name := path.Clean(path.Join("word", rel.Target))
	if strings.HasPrefix(rel.Target, "/") {
		name = strings.TrimPrefix(rel.Target, "/")
	}
	mime := imageMIME(name)
	if mime == "" {
		return
	}
	data, err := w.pkg.read(name)
	if err != nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(`<img src="data:` + mime + `;base64,` + base64.StdEncoding.EncodeToString(data) + `"`)
	if w.extentW > 0 && w.extentH > 0 {
		sb.WriteString(` width="` + strconv.Itoa(w.extentW) + `" height="` + strconv.Itoa(w.extentH) + `"`)
	}
	sb.WriteString(">")
	w.run.content.WriteString(sb.String())
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggle reads an on/off property such as <w:b/> or <w:b w:val="0"/>.
func toggle(t xml.StartElement) bool {
	switch attr(t, "val") {
	case "0", "false", "off":
		return false
	}
	return true
}

func hexColor(v string) string {
	if len(v) != 6 || !isHex(v) {
		return ""
	}
	return "#" + strings.ToLower(v)
}

// highlightColor maps a w:highlight value to a CSS color keyword.
func highlightColor(v string) string {
	switch v {
	case "", "none":
		return ""
	case "darkYellow":
		return "olive"
	}
	return strings.ToLower(v)
}

func emuToPixels(v string) int {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return int(n / emuPerPixel)
}

// paragraphClass renders alignment and list indentation as editor classes.
func paragraphClass(jc string, ilvl int) string {
	var classes []string
	switch jc {
	case "center":
		classes = append(classes, "ql-align-center")
	case "right", "end":
		classes = append(classes, "ql-align-right")
	case "both", "distribute":
		classes = append(classes, "ql-align-justify")
	}
	if ilvl > 0 && ilvl <= 8 {
		classes = append(classes, "ql-indent-"+strconv.Itoa(ilvl))
	}
	if len(classes) == 0 {
		return ""
	}
	return ` class="` + strings.Join(classes, " ") + `"`
}

func imageMIME(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return ""
}

// docxHeadingLevel extracts the heading level from a paragraph style name.
// e.g. "Heading1" → 1, "Heading2" → 2, "Title" → 1, etc.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)

	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}

	// "Heading1", "heading1", "Titre1", etc.
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}
