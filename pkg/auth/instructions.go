package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowSessionGuide prints how to copy the _session_id cookie out of a browser
func ShowSessionGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "STORYPARK SESSION GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The archiver authenticates with the _session_id cookie of a signed-in")
	fmt.Fprintln(w, "browser session. It never sees your password.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Sign in at https://app.storypark.com")
	fmt.Fprintln(w, "2. Open Developer Tools (F12, or Cmd+Option+I on macOS)")
	fmt.Fprintln(w, "3. Chrome/Edge: Application > Cookies > https://app.storypark.com")
	fmt.Fprintln(w, "   Firefox:     Storage > Cookies > https://app.storypark.com")
	fmt.Fprintln(w, "4. Copy the value of the _session_id cookie")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Then either export it for a single run:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   export STORYPARK_SESSION_ID=<value>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "or store it once with:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   storypark auth login")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sessions expire when you sign out of the browser. A 401 during a crawl")
	fmt.Fprintln(w, "means the stored value needs to be replaced.")
	fmt.Fprintln(w, rule)
}
