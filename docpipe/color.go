package docpipe

import (
	"fmt"
	"strconv"
	"strings"
)

// namedColors covers the CSS keywords the editor palette and Word highlight
// colors produce. Unknown keywords are dropped on encode.
var namedColors = map[string]string{
	"black":       "000000",
	"white":       "FFFFFF",
	"red":         "FF0000",
	"green":       "008000",
	"lime":        "00FF00",
	"blue":        "0000FF",
	"yellow":      "FFFF00",
	"cyan":        "00FFFF",
	"aqua":        "00FFFF",
	"magenta":     "FF00FF",
	"fuchsia":     "FF00FF",
	"gray":        "808080",
	"grey":        "808080",
	"lightgray":   "D3D3D3",
	"lightgrey":   "D3D3D3",
	"darkgray":    "A9A9A9",
	"darkgrey":    "A9A9A9",
	"silver":      "C0C0C0",
	"maroon":      "800000",
	"darkred":     "8B0000",
	"olive":       "808000",
	"navy":        "000080",
	"darkblue":    "00008B",
	"purple":      "800080",
	"darkmagenta": "8B008B",
	"teal":        "008080",
	"darkcyan":    "008B8B",
	"darkgreen":   "006400",
	"orange":      "FFA500",
	"pink":        "FFC0CB",
	"brown":       "A52A2A",
}

// cssToHex converts a CSS color token to the RRGGBB form WordprocessingML
// expects. It returns "" for values it cannot represent.
func cssToHex(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return ""
	case strings.HasPrefix(v, "#"):
		h := v[1:]
		if !isHex(h) {
			return ""
		}
		switch len(h) {
		case 3, 4:
			return strings.ToUpper(string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}))
		case 6, 8:
			return strings.ToUpper(h[:6])
		}
		return ""
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		open := strings.IndexByte(v, '(')
		if !strings.HasSuffix(v, ")") {
			return ""
		}
		args := strings.Split(v[open+1:len(v)-1], ",")
		if len(args) < 3 {
			return ""
		}
		var rgb [3]int
		for i := range rgb {
			n, ok := channel(strings.TrimSpace(args[i]))
			if !ok {
				return ""
			}
			rgb[i] = n
		}
		return fmt.Sprintf("%02X%02X%02X", rgb[0], rgb[1], rgb[2])
	}
	return namedColors[v]
}

func channel(s string) (int, bool) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil || f < 0 || f > 100 {
			return 0, false
		}
		return int(f*255/100 + 0.5), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 255 {
		return 0, false
	}
	return int(f + 0.5), true
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
