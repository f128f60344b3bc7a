package sink

import (
	"path/filepath"

	"github.com/valyala/fasttemplate"
)

// ExpandPath substitutes {NAME} placeholders in tmpl with
// vars. A relative result is resolved against base.
func ExpandPath(tmpl string, vars map[string]interface{}, base string) string {
	p := fasttemplate.ExecuteStringStd(tmpl, "{", "}", vars)

	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}

	return filepath.Clean(p)
}
