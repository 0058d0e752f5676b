package sanitize

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestSanitize_ScriptAndHandlers(t *testing.T) {
	got := Default().Sanitize(`<img src="x.png" onclick="evil()"><script>bad()</script>`)

	if !strings.Contains(got, `<img src="x.png">`) {
		t.Fatalf("expected img with src to survive, got %q", got)
	}
	if strings.Contains(got, "onclick") || strings.Contains(got, "evil") {
		t.Fatalf("onclick not removed: %q", got)
	}
	if strings.Contains(got, "script") || strings.Contains(got, "bad()") {
		t.Fatalf("script not removed: %q", got)
	}
}

func TestSanitize_Tags(t *testing.T) {
	p := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", `<p>hello</p>`, `<p>hello</p>`},
		{"heading", `<h2>Title</h2>`, `<h2>Title</h2>`},
		{"emphasis", `<p><strong>a</strong><em>b</em><u>c</u></p>`, `<p><strong>a</strong><em>b</em><u>c</u></p>`},
		{"unknown tag keeps text", `<blink>x</blink>`, `x`},
		{"iframe dropped", `<p>a</p><iframe src="https://x"></iframe>`, `<p>a</p>`},
		{"style element dropped", `<style>p{}</style><p>a</p>`, `<p>a</p>`},
		{"empty", ``, ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize_Styles(t *testing.T) {
	p := Default()

	got := p.Sanitize(`<span style="color: #ff0000; font-size: 40px">x</span>`)
	if !strings.Contains(got, "color: #ff0000") {
		t.Fatalf("color dropped: %q", got)
	}
	if strings.Contains(got, "font-size") {
		t.Fatalf("font-size kept: %q", got)
	}

	got = p.Sanitize(`<span style="background-color: url(javascript:alert(1))">x</span>`)
	if strings.Contains(got, "javascript") {
		t.Fatalf("script-bearing style kept: %q", got)
	}
}

func TestSanitize_Links(t *testing.T) {
	p := Default()

	got := p.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(got, "javascript") {
		t.Fatalf("javascript href kept: %q", got)
	}
	got = p.Sanitize(`<a href="https://example.com">x</a>`)
	if !strings.Contains(got, `href="https://example.com"`) {
		t.Fatalf("https href dropped: %q", got)
	}
}

func TestValidStyle(t *testing.T) {
	p := Default()

	tests := []struct {
		prop, value string
		ok          bool
	}{
		{"color", "red", true},
		{"color", "#abc", true},
		{"color", "#a1b2c3", true},
		{"color", "rgb(230, 0, 0)", true},
		{"background-color", "rgba(0, 0, 0, 0.5)", true},
		{"background-color", "hsl(120deg, 50%, 50%)", true},
		{"color", "url(javascript:alert(1))", false},
		{"color", "expression(alert(1))", false},
		{"font-size", "12px", false},
	}
	for _, tt := range tests {
		if got := p.ValidStyle(tt.prop, tt.value); got != tt.ok {
			t.Errorf("ValidStyle(%q, %q) = %v, want %v", tt.prop, tt.value, got, tt.ok)
		}
	}
}

func TestPolicy_AllowLists(t *testing.T) {
	p := New()

	if !p.AllowsTag("img") || p.AllowsTag("script") {
		t.Fatal("unexpected tag allow-list")
	}
	attrs := p.AllowedAttributes()
	attrs["img"][0] = "mutated"
	if p.AllowedAttributes()["img"][0] != "src" {
		t.Fatal("AllowedAttributes leaked internal state")
	}
	styles := p.AllowedStyles()
	if len(styles) != 2 || styles[0] != "background-color" || styles[1] != "color" {
		t.Fatalf("styles: got %v", styles)
	}
}

var fragments = []string{
	"<p>", "</p>", "<h1>", "</h1>", "<h3>", "</h3>", "<strong>", "</strong>",
	"<em>", "</em>", "<u>", "</u>", "<span style=\"color: red\">", "</span>",
	"<span style=\"background-color: #00ff00; width: 3px\">",
	"<img src=\"a.png\" onerror=\"x()\">", "<img src=\"javascript:x()\">",
	"<script>alert(1)</script>", "<div onclick=\"y()\">", "</div>",
	"<a href=\"https://example.com\">", "<a href=\"javascript:z()\">", "</a>",
	"<br>", "<ul><li>", "</li></ul>", "hello", " world ", "a & b", "1 < 2",
	"\"quoted\"", "é", "<!-- note -->", "<p class=\"ql-align-center\">",
}

func TestSanitize_Idempotent(t *testing.T) {
	p := Default()
	rapid.Check(t, func(t *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 0, 24).Draw(t, "parts")
		markup := strings.Join(parts, "")

		once := p.Sanitize(markup)
		twice := p.Sanitize(once)
		if once != twice {
			t.Fatalf("not idempotent:\n in:    %q\n once:  %q\n twice: %q", markup, once, twice)
		}
	})
}
