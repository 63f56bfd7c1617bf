package render

import "strings"

// Vars is the fixed set of template variables this engine produces.
// Keeping them in a struct rather than an open map catches a renamed
// variable at compile time.
type Vars struct {
	ClientName      string
	ClientFirstName string
	BusinessName    string
	BusinessPhone   string
}

// Map returns the variables keyed the way templates reference them.
func (v Vars) Map() map[string]string {
	return map[string]string{
		"client_name":       v.ClientName,
		"client_first_name": v.ClientFirstName,
		"business_name":     v.BusinessName,
		"business_phone":    v.BusinessPhone,
	}
}

// Render replaces every occurrence of {{key}} with its value, globally and
// case-sensitively, for each key present in vars. Keys absent from vars
// stay literal in the output. No escaping is performed; that is the
// caller's job if a channel requires it.
func Render(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}
