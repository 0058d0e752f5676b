package docpipe

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"

	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relSettings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	// maxImagePx bounds inline images to the printable width of a Letter page.
	maxImagePx = 624

	numBullet  = 1
	numDecimal = 2
)

// documentShell wraps sanitized markup in a minimal HTML document that
// declares the character encoding and the default font.
func documentShell(markup string, opts DocxOptions) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8">` +
		`<style>body { font-family: "` + fontName(opts.DefaultFont) + `"; font-size: ` +
		strconv.Itoa(opts.FontSizePt) + `pt; }</style></head><body>` +
		markup + `</body></html>`
}

// encodeDocx serializes sanitized markup into a .docx container. Output is
// deterministic: the same markup and options always produce the same bytes.
func encodeDocx(markup string, opts DocxOptions) ([]byte, error) {
	if !utf8.ValidString(markup) {
		return nil, errors.New("markup is not valid UTF-8")
	}
	root, err := html.Parse(strings.NewReader(documentShell(markup, opts)))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	body := findElement(root, atom.Body)
	if body == nil {
		return nil, errors.New("markup shell has no body")
	}

	w := &docxWriter{opts: opts, nextRel: 5}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, runProps{})
	}
	w.closePara()

	title := opts.Title
	if title == "" {
		title = w.title
	}
	return w.pack(title)
}

type docxRel struct {
	id, typ, target string
	external        bool
}

type docxMedia struct {
	name string
	ext  string
	data []byte
}

type blockProps struct {
	style string
	jc    string
	numID int
	ilvl  int
	pre   bool
}

type docxPara struct {
	props  blockProps
	buf    strings.Builder
	plain  strings.Builder
	inLink bool
}

type runProps struct {
	bold, italic, underline, strike bool
	code, link                      bool
	color, fill                     string // hex, no leading '#'
	vertAlign                       string
}

// docxWriter turns a markup tree into WordprocessingML.
type docxWriter struct {
	opts DocxOptions

	body   strings.Builder
	paras  int
	para   *docxPara
	blocks []blockProps
	lists  []string

	rels    []docxRel
	media   []docxMedia
	nextRel int
	title   string
}

func (w *docxWriter) walk(n *html.Node, rp runProps) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, rp)
		return
	case html.ElementNode:
	default:
		return
	}

	rp = rp.withStyle(getAttr(n, "style"))

	switch n.DataAtom {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Li:
		w.block(n, rp)
		return
	case atom.Ul, atom.Ol:
		w.closePara()
		w.lists = append(w.lists, n.Data)
		w.children(n, rp)
		w.lists = w.lists[:len(w.lists)-1]
		w.closePara()
		return
	case atom.Br:
		w.ensurePara()
		w.para.buf.WriteString(`<w:r>` + rp.xml() + `<w:br/></w:r>`)
		w.para.plain.WriteByte('\n')
		return
	case atom.Img:
		w.image(n, rp)
		return
	case atom.A:
		w.link(n, rp)
		return
	case atom.Strong, atom.B:
		rp.bold = true
	case atom.Em, atom.I:
		rp.italic = true
	case atom.U:
		rp.underline = true
	case atom.S, atom.Strike:
		rp.strike = true
	case atom.Code:
		rp.code = true
	case atom.Sub:
		rp.vertAlign = "subscript"
	case atom.Sup:
		rp.vertAlign = "superscript"
	}
	w.children(n, rp)
}

func (w *docxWriter) children(n *html.Node, rp runProps) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, rp)
	}
}

func (w *docxWriter) block(n *html.Node, rp runProps) {
	class := getAttr(n, "class")
	props := blockProps{jc: jcFromClass(class), ilvl: indentFromClass(class)}
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		props.style = "Heading" + n.Data[1:]
	case atom.Blockquote:
		props.style = "Quote"
	case atom.Pre:
		props.style = "Code"
		props.pre = true
		rp.code = true
	case atom.Li:
		props.numID = numBullet
		if len(w.lists) > 0 && w.lists[len(w.lists)-1] == "ol" {
			props.numID = numDecimal
		}
		props.ilvl = min(max(len(w.lists)-1, 0)+props.ilvl, 8)
	}

	w.closePara()
	w.blocks = append(w.blocks, props)
	before := w.paras
	if !onlyBreak(n) {
		w.children(n, rp)
	}
	if w.paras == before && w.para == nil {
		w.ensurePara()
	}
	w.closePara()
	w.blocks = w.blocks[:len(w.blocks)-1]
}

func (w *docxWriter) ensurePara() {
	if w.para != nil {
		return
	}
	p := &docxPara{}
	if len(w.blocks) > 0 {
		p.props = w.blocks[len(w.blocks)-1]
	}
	w.para = p
}

func (w *docxWriter) closePara() {
	p := w.para
	if p == nil {
		return
	}
	w.para = nil
	w.paras++
	if p.inLink {
		p.buf.WriteString("</w:hyperlink>")
	}

	if w.title == "" && strings.HasPrefix(p.props.style, "Heading") {
		w.title = strings.TrimSpace(p.plain.String())
	}

	w.body.WriteString("<w:p>")
	if ppr := p.props.xml(); ppr != "" {
		w.body.WriteString(ppr)
	}
	w.body.WriteString(p.buf.String())
	w.body.WriteString("</w:p>")
}

func (w *docxWriter) text(s string, rp runProps) {
	pre := false
	if w.para != nil {
		pre = w.para.props.pre
	} else if len(w.blocks) > 0 {
		pre = w.blocks[len(w.blocks)-1].pre
	}
	if w.para == nil && !pre && strings.TrimSpace(s) == "" {
		return
	}
	if !pre {
		s = strings.ReplaceAll(s, "\r\n", " ")
		s = strings.ReplaceAll(s, "\n", " ")
	}
	if s == "" {
		return
	}
	w.ensurePara()
	w.para.plain.WriteString(s)

	var sb strings.Builder
	sb.WriteString("<w:r>")
	sb.WriteString(rp.xml())
	start := 0
	flush := func(end int) {
		if end > start {
			sb.WriteString(`<w:t xml:space="preserve">` + xmlEscape(s[start:end]) + `</w:t>`)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\t':
			flush(i)
			sb.WriteString("<w:tab/>")
			start = i + 1
		case '\n':
			flush(i)
			sb.WriteString("<w:br/>")
			start = i + 1
		}
	}
	flush(len(s))
	sb.WriteString("</w:r>")
	w.para.buf.WriteString(sb.String())
}

func (w *docxWriter) link(n *html.Node, rp runProps) {
	href := getAttr(n, "href")
	if href == "" {
		w.children(n, rp)
		return
	}
	w.ensurePara()
	p := w.para
	if p.inLink {
		w.children(n, rp)
		return
	}
	rid := w.addRel(relHyperlink, href, true)
	p.buf.WriteString(`<w:hyperlink r:id="` + rid + `">`)
	p.inLink = true

	rp.link = true
	w.children(n, rp)

	if w.para == p && p.inLink {
		p.buf.WriteString("</w:hyperlink>")
		p.inLink = false
	}
}

func (w *docxWriter) image(n *html.Node, rp runProps) {
	data, ext, ok := parseDataURI(getAttr(n, "src"))
	if !ok {
		if alt := getAttr(n, "alt"); alt != "" {
			w.text(alt, rp)
		}
		return
	}

	width, _ := strconv.Atoi(getAttr(n, "width"))
	height, _ := strconv.Atoi(getAttr(n, "height"))
	if width <= 0 || height <= 0 {
		width, height = 96, 96
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
			width, height = cfg.Width, cfg.Height
		}
	}
	if width > maxImagePx {
		height = height * maxImagePx / width
		width = maxImagePx
	}
	height = max(height, 1)

	idx := len(w.media) + 1
	name := "image" + strconv.Itoa(idx) + "." + ext
	w.media = append(w.media, docxMedia{name: "word/media/" + name, ext: ext, data: data})
	rid := w.addRel(relImage, "media/"+name, false)

	w.ensurePara()
	cx, cy := width*emuPerPixel, height*emuPerPixel
	w.para.buf.WriteString(`<w:r>` + rp.xml() + `<w:drawing>` +
		`<wp:inline distT="0" distB="0" distL="0" distR="0">` +
		fmt.Sprintf(`<wp:extent cx="%d" cy="%d"/>`, cx, cy) +
		fmt.Sprintf(`<wp:docPr id="%d" name="Picture %d"/>`, idx, idx) +
		`<a:graphic><a:graphicData uri="` + nsPic + `"><pic:pic>` +
		fmt.Sprintf(`<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, idx, name) +
		`<pic:blipFill><a:blip r:embed="` + rid + `"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
		fmt.Sprintf(`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, cx, cy) +
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`)
}

func (w *docxWriter) addRel(typ, target string, external bool) string {
	id := "rId" + strconv.Itoa(w.nextRel)
	w.nextRel++
	w.rels = append(w.rels, docxRel{id: id, typ: typ, target: target, external: external})
	return id
}

func (bp blockProps) xml() string {
	var sb strings.Builder
	if bp.style != "" {
		sb.WriteString(`<w:pStyle w:val="` + bp.style + `"/>`)
	}
	if bp.numID > 0 {
		sb.WriteString(`<w:numPr><w:ilvl w:val="` + strconv.Itoa(bp.ilvl) + `"/><w:numId w:val="` + strconv.Itoa(bp.numID) + `"/></w:numPr>`)
	} else if bp.ilvl > 0 {
		sb.WriteString(`<w:ind w:left="` + strconv.Itoa(720*bp.ilvl) + `"/>`)
	}
	if bp.jc != "" {
		sb.WriteString(`<w:jc w:val="` + bp.jc + `"/>`)
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<w:pPr>" + sb.String() + "</w:pPr>"
}

func (rp runProps) withStyle(style string) runProps {
	if style == "" {
		return rp
	}
	for decl := range strings.SplitSeq(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		hex := cssToHex(strings.TrimSpace(value))
		if hex == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "color":
			rp.color = hex
		case "background-color":
			rp.fill = hex
		}
	}
	return rp
}

func (rp runProps) xml() string {
	var sb strings.Builder
	if rp.link {
		sb.WriteString(`<w:rStyle w:val="Hyperlink"/>`)
	}
	if rp.code {
		sb.WriteString(`<w:rFonts w:ascii="Courier New" w:hAnsi="Courier New" w:cs="Courier New"/>`)
	}
	if rp.bold {
		sb.WriteString(`<w:b/>`)
	}
	if rp.italic {
		sb.WriteString(`<w:i/>`)
	}
	if rp.strike {
		sb.WriteString(`<w:strike/>`)
	}
	if rp.color != "" {
		sb.WriteString(`<w:color w:val="` + rp.color + `"/>`)
	}
	if rp.underline {
		sb.WriteString(`<w:u w:val="single"/>`)
	}
	if rp.fill != "" {
		sb.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="` + rp.fill + `"/>`)
	}
	if rp.vertAlign != "" {
		sb.WriteString(`<w:vertAlign w:val="` + rp.vertAlign + `"/>`)
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<w:rPr>" + sb.String() + "</w:rPr>"
}

// pack assembles the container parts.
func (w *docxWriter) pack(title string) ([]byte, error) {
	footer := w.opts.FooterEnabled()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}

	parts := []struct {
		name string
		data string
	}{
		{"[Content_Types].xml", w.contentTypes(footer)},
		{"_rels/.rels", packageRels},
		{"docProps/core.xml", coreXML(title)},
		{"word/document.xml", w.documentXML(footer)},
		{"word/_rels/document.xml.rels", w.documentRels(footer)},
		{"word/styles.xml", stylesXML(w.opts)},
		{"word/settings.xml", settingsXML},
		{"word/numbering.xml", numberingXML()},
	}
	if footer {
		parts = append(parts, struct {
			name string
			data string
		}{"word/footer1.xml", footerXML})
	}
	for _, p := range parts {
		if err := write(p.name, []byte(p.data)); err != nil {
			return nil, err
		}
	}
	for _, m := range w.media {
		if err := write(m.name, m.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *docxWriter) contentTypes(footer bool) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := map[string]bool{}
	for _, m := range w.media {
		if seen[m.ext] {
			continue
		}
		seen[m.ext] = true
		sb.WriteString(`<Default Extension="` + m.ext + `" ContentType="` + imageMIME("x."+m.ext) + `"/>`)
	}
	override := func(part, ct string) {
		sb.WriteString(`<Override PartName="` + part + `" ContentType="` + ct + `"/>`)
	}
	override("/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml")
	override("/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml")
	override("/word/settings.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml")
	override("/word/numbering.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml")
	if footer {
		override("/word/footer1.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml")
	}
	override("/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml")
	sb.WriteString(`</Types>`)
	return sb.String()
}

func (w *docxWriter) documentXML(footer bool) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<w:document xmlns:w="` + nsW + `" xmlns:r="` + nsR + `" xmlns:wp="` + nsWP +
		`" xmlns:a="` + nsA + `" xmlns:pic="` + nsPic + `"><w:body>`)
	if w.paras == 0 {
		sb.WriteString("<w:p/>")
	}
	sb.WriteString(w.body.String())
	sb.WriteString("<w:sectPr>")
	if footer {
		sb.WriteString(`<w:footerReference w:type="default" r:id="rId4"/>`)
	}
	sb.WriteString(`<w:pgSz w:w="12240" w:h="15840"/>`)
	sb.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>`)
	if footer {
		sb.WriteString(`<w:pgNumType w:start="1"/>`)
	}
	sb.WriteString("</w:sectPr></w:body></w:document>")
	return sb.String()
}

func (w *docxWriter) documentRels(footer bool) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	rel := func(id, typ, target string, external bool) {
		sb.WriteString(`<Relationship Id="` + id + `" Type="` + typ + `" Target="` + xmlEscape(target) + `"`)
		if external {
			sb.WriteString(` TargetMode="External"`)
		}
		sb.WriteString(`/>`)
	}
	rel("rId1", relStyles, "styles.xml", false)
	rel("rId2", relSettings, "settings.xml", false)
	rel("rId3", relNumbering, "numbering.xml", false)
	if footer {
		rel("rId4", relFooter, "footer1.xml", false)
	}
	for _, r := range w.rels {
		rel(r.id, r.typ, r.target, r.external)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

const packageRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

const settingsXML = xmlHeader +
	`<w:settings xmlns:w="` + nsW + `"><w:defaultTabStop w:val="720"/><w:characterSpacingControl w:val="doNotCompress"/></w:settings>`

const footerXML = xmlHeader +
	`<w:ftr xmlns:w="` + nsW + `" xmlns:r="` + nsR + `"><w:p><w:pPr><w:pStyle w:val="Footer"/><w:jc w:val="center"/></w:pPr>` +
	`<w:r><w:fldChar w:fldCharType="begin"/></w:r>` +
	`<w:r><w:instrText xml:space="preserve"> PAGE </w:instrText></w:r>` +
	`<w:r><w:fldChar w:fldCharType="separate"/></w:r>` +
	`<w:r><w:t>1</w:t></w:r>` +
	`<w:r><w:fldChar w:fldCharType="end"/></w:r>` +
	`</w:p></w:ftr>`

func coreXML(title string) string {
	return xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">` +
		`<dc:title>` + xmlEscape(title) + `</dc:title>` +
		`</cp:coreProperties>`
}

func stylesXML(opts DocxOptions) string {
	font := xmlEscape(fontName(opts.DefaultFont))
	size := strconv.Itoa(opts.FontSizePt * 2)

	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	sb.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>`)
	sb.WriteString(`<w:rFonts w:ascii="` + font + `" w:hAnsi="` + font + `" w:eastAsia="` + font + `" w:cs="` + font + `"/>`)
	sb.WriteString(`<w:sz w:val="` + size + `"/><w:szCs w:val="` + size + `"/>`)
	sb.WriteString(`</w:rPr></w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)
	sb.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)

	headingSizes := []int{32, 26, 24, 22, 20, 18}
	for i, sz := range headingSizes {
		n := strconv.Itoa(i + 1)
		sb.WriteString(`<w:style w:type="paragraph" w:styleId="Heading` + n + `"><w:name w:val="heading ` + n + `"/>` +
			`<w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
			`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="60"/><w:outlineLvl w:val="` + strconv.Itoa(i) + `"/></w:pPr>` +
			`<w:rPr><w:b/><w:sz w:val="` + strconv.Itoa(sz) + `"/><w:szCs w:val="` + strconv.Itoa(sz) + `"/></w:rPr></w:style>`)
	}
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="Quote"><w:name w:val="Quote"/><w:basedOn w:val="Normal"/>` +
		`<w:pPr><w:ind w:left="720"/></w:pPr><w:rPr><w:i/></w:rPr></w:style>`)
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="Code"><w:name w:val="Code"/><w:basedOn w:val="Normal"/>` +
		`<w:pPr><w:spacing w:after="0"/></w:pPr><w:rPr><w:rFonts w:ascii="Courier New" w:hAnsi="Courier New" w:cs="Courier New"/></w:rPr></w:style>`)
	sb.WriteString(`<w:style w:type="paragraph" w:styleId="Footer"><w:name w:val="footer"/><w:basedOn w:val="Normal"/></w:style>`)
	sb.WriteString(`<w:style w:type="character" w:styleId="Hyperlink"><w:name w:val="Hyperlink"/>` +
		`<w:rPr><w:color w:val="0563C1"/><w:u w:val="single"/></w:rPr></w:style>`)
	sb.WriteString(`</w:styles>`)
	return sb.String()
}

func numberingXML() string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<w:numbering xmlns:w="` + nsW + `">`)
	for id, fmtVal := range []string{"bullet", "decimal"} {
		sb.WriteString(`<w:abstractNum w:abstractNumId="` + strconv.Itoa(id) + `">`)
		for lvl := range 9 {
			text := "•"
			if fmtVal == "decimal" {
				text = "%" + strconv.Itoa(lvl+1) + "."
			}
			sb.WriteString(`<w:lvl w:ilvl="` + strconv.Itoa(lvl) + `"><w:start w:val="1"/>` +
				`<w:numFmt w:val="` + fmtVal + `"/><w:lvlText w:val="` + text + `"/><w:lvlJc w:val="left"/>` +
				`<w:pPr><w:ind w:left="` + strconv.Itoa(720*(lvl+1)) + `" w:hanging="360"/></w:pPr></w:lvl>`)
		}
		sb.WriteString(`</w:abstractNum>`)
	}
	sb.WriteString(`<w:num w:numId="` + strconv.Itoa(numBullet) + `"><w:abstractNumId w:val="0"/></w:num>`)
	sb.WriteString(`<w:num w:numId="` + strconv.Itoa(numDecimal) + `"><w:abstractNumId w:val="1"/></w:num>`)
	sb.WriteString(`</w:numbering>`)
	return sb.String()
}

// parseDataURI decodes a base64 data:image URI and returns the payload and
// the media file extension.
func parseDataURI(src string) ([]byte, string, bool) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", false
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, "", false
	}
	var ext string
	switch strings.ToLower(mime) {
	case "image/png":
		ext = "png"
	case "image/jpeg", "image/jpg":
		ext = "jpeg"
	case "image/gif":
		ext = "gif"
	case "image/webp":
		ext = "webp"
	default:
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}
	return data, ext, true
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// onlyBreak reports whether n holds a single <br>, the editor's
// representation of an empty line.
func onlyBreak(n *html.Node) bool {
	c := n.FirstChild
	return c != nil && c.NextSibling == nil && c.Type == html.ElementNode && c.DataAtom == atom.Br
}

func jcFromClass(class string) string {
	for f := range strings.FieldsSeq(class) {
		switch f {
		case "ql-align-center":
			return "center"
		case "ql-align-right":
			return "right"
		case "ql-align-justify":
			return "both"
		}
	}
	return ""
}

func indentFromClass(class string) int {
	for f := range strings.FieldsSeq(class) {
		if v, ok := strings.CutPrefix(f, "ql-indent-"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 8 {
				return n
			}
		}
	}
	return 0
}

// fontName keeps letters, digits, spaces and hyphens.
func fontName(s string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ', r == '-':
			return r
		}
		return -1
	}, s)
	if strings.TrimSpace(out) == "" {
		return "Calibri"
	}
	return out
}

func xmlEscape(s string) string {
	var sb strings.Builder
	xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
