// Package sanitize reduces untrusted rich markup to the subset the editor and
// the docx converter agree on.
//
// The policy is an allow-list: tags, attributes and style properties not
// listed are dropped without error. Script-like content (script, style,
// iframe, object) is removed together with its children. Sanitizing an
// already sanitized fragment returns it unchanged, so markup can flow through
// Sanitize on every open and every save.
//
//	clean := sanitize.Default().Sanitize(`<p onclick="x()">hi</p>`)
//	// clean == "<p>hi</p>"
package sanitize

import (
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Wildcard is the AllowedAttributes key for attributes accepted on every tag.
const Wildcard = "*"

var (
	// cssColor accepts hex colors, rgb/rgba/hsl/hsla functional notation with
	// numeric arguments, and bare keywords (red, transparent, currentColor).
	cssColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,4}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|(rgb|rgba|hsl|hsla)\(\s*-?[0-9.]+(deg|%)?\s*(,\s*-?[0-9.]+%?\s*){2,3}\)|[a-zA-Z]+)$`)

	className = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
)

// Policy is an immutable allow-list. The zero value is not usable; build one
// with New or Default.
type Policy struct {
	tags   []string
	attrs  map[string][]string
	styles map[string]*regexp.Regexp

	bm *bluemonday.Policy
}

var defaultPolicy = sync.OnceValue(New)

// Default returns the process-wide policy. It is safe for concurrent use.
func Default() *Policy {
	return defaultPolicy()
}

// New builds the editor policy.
func New() *Policy {
	p := &Policy{
		tags: []string{
			"p", "br", "strong", "b", "em", "i", "u", "s", "strike", "span",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"img", "a", "ol", "ul", "li", "blockquote", "pre", "code", "sub", "sup",
		},
		attrs: map[string][]string{
			Wildcard: {"style", "class"},
			"img":    {"src", "width", "height", "alt"},
			"a":      {"href"},
		},
		styles: map[string]*regexp.Regexp{
			"color":            cssColor,
			"background-color": cssColor,
		},
	}

	bm := bluemonday.NewPolicy()
	bm.AllowElements(p.tags...)
	bm.AllowAttrs("style").Globally()
	bm.AllowAttrs("class").Matching(className).Globally()
	for prop, re := range p.styles {
		bm.AllowStyles(prop).Matching(re).Globally()
	}

	bm.AllowAttrs("src").OnElements("img")
	bm.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")
	bm.AllowAttrs("alt").Matching(bluemonday.Paragraph).OnElements("img")
	bm.AllowAttrs("href").OnElements("a")

	bm.AllowURLSchemes("http", "https", "mailto")
	bm.AllowRelativeURLs(true)
	bm.RequireParseableURLs(true)
	bm.AllowDataURIImages()

	p.bm = bm
	return p
}

// Sanitize returns the allowed subset of markup. It never fails: anything
// outside the allow-list is removed and the rest is kept.
func (p *Policy) Sanitize(markup string) string {
	if markup == "" {
		return ""
	}
	return p.bm.Sanitize(markup)
}

// AllowedTags returns the sorted tag allow-list.
func (p *Policy) AllowedTags() []string {
	out := slices.Clone(p.tags)
	slices.Sort(out)
	return out
}

// AllowedAttributes returns a copy of the per-tag attribute allow-list.
// Attributes under Wildcard apply to every allowed tag.
func (p *Policy) AllowedAttributes() map[string][]string {
	out := make(map[string][]string, len(p.attrs))
	for tag, names := range p.attrs {
		out[tag] = slices.Clone(names)
	}
	return out
}

// AllowedStyles returns the sorted list of accepted style properties.
func (p *Policy) AllowedStyles() []string {
	return slices.Sorted(maps.Keys(p.styles))
}

// AllowsTag reports whether tag survives sanitization.
func (p *Policy) AllowsTag(tag string) bool {
	return slices.Contains(p.tags, tag)
}

// ValidStyle reports whether value is accepted for the style property prop.
func (p *Policy) ValidStyle(prop, value string) bool {
	re, ok := p.styles[prop]
	return ok && re.MatchString(value)
}
