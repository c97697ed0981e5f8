package gmail

import (
	"fmt"
	"strings"
)

// BuildUnreadQuery returns a Gmail search query matching unread inbox
// messages that do not yet carry any of the given labels. Label names
// containing whitespace are quoted; the managed category names need no
// further escaping.
func BuildUnreadQuery(excludeLabels []string) string {
	var b strings.Builder
	b.WriteString("is:unread in:inbox")

	for _, name := range excludeLabels {
		if name == "" {
			continue
		}
		if strings.ContainsAny(name, " \t") {
			fmt.Fprintf(&b, " -label:%q", name)
		} else {
			fmt.Fprintf(&b, " -label:%s", name)
		}
	}

	return b.String()
}
