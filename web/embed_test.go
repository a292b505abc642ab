package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestContent(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "styles.css"} {
		b, err := fs.ReadFile(Content, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(b) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

// The globe is a controlled deck.gl view: camera moves must be applied
// locally, and server frames must not override an active gesture.
func TestAppAppliesViewLocally(t *testing.T) {
	b, err := fs.ReadFile(Content, "app.js")
	if err != nil {
		t.Fatal(err)
	}
	js := string(b)
	for _, want := range []string{
		"globe.setProps({ viewState })",
		"onInteractionStateChange",
		"if (!gesture && Date.now() - lastLocalMove > localHoldMs)",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("app.js missing %q", want)
		}
	}
}
