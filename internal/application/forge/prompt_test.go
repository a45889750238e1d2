package forge

import "testing"

func TestComposeImagePrompt(t *testing.T) {
	long := "A vast flooded neon dock at night"
	cases := map[string]string{
		"":              long,
		"   \n\t":       long,
		"heavy rain":    long + " Additional details and refinements: heavy rain",
		"  heavy rain ": long + " Additional details and refinements: heavy rain",
	}
	for override, want := range cases {
		if got := ComposeImagePrompt(long, override); got != want {
			t.Fatalf("ComposeImagePrompt(%q)=%q want %q", override, got, want)
		}
	}
}
