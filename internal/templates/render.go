// Package templates implements the placeholder substitution used for
// certificate email subjects and bodies. Templates are literal text with
// {Key} tokens; there is deliberately no control flow.
package templates

import "strings"

// Render replaces every occurrence of {key} in template with the value
// from vars. Keys are matched exactly as given; tokens with no matching
// key are left untouched so a typo in a template shows up in the output
// instead of failing the send.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.ContainsRune(template, '{') {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}

	return strings.NewReplacer(pairs...).Replace(template)
}
