// Package preview confirms a freshly written story against the live
// preview server: wait for the watcher to pick the file up, poll the
// manifest for the story's identifier, then scan the rendered frame for
// known failure signatures.
package preview

import "strings"

// StoryID derives the preview server's identifier for a story title.
// The derivation is pure and matches the server's own slug rules:
// lowercase, with every run of non-alphanumeric characters collapsed to
// a single dash. "Generated/Login Form" becomes "generated-login-form".
func StoryID(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
