package normalize

import "regexp"

// trim maps a pattern found in a model string to its canonical variant name.
// Tables are ordered: more specific trims come first.
type trim struct {
	re   *regexp.Regexp
	name string
}

func firstTrim(s string, table []trim) string {
	for _, t := range table {
		if t.re.MatchString(s) {
			return t.name
		}
	}
	return ""
}

var jcw = regexp.MustCompile(`john\s*cooper\s*works|jcw`)

var doorTrims = []trim{
	{jcw, "jcw"},
	{regexp.MustCompile(`cooper\s*se\b`), "cooper se"},
	{regexp.MustCompile(`cooper\s*s\s*e\b`), "cooper s e"},
	{regexp.MustCompile(`cooper\s*sd\b`), "cooper sd"},
	{regexp.MustCompile(`cooper\s*s\b`), "cooper s"},
	{regexp.MustCompile(`cooper\s*e\b`), "cooper e"},
	{regexp.MustCompile(`cooper\s*d\b`), "cooper d"},
	{regexp.MustCompile(`cooper\s*c\b`), "cooper c"},
	{regexp.MustCompile(`cooper`), "cooper"},
	{regexp.MustCompile(`\bone\s*d\b`), "one d"},
	{regexp.MustCompile(`\bone\b`), "one"},
}

var crossoverTrims = []trim{
	{jcw, "jcw"},
	{regexp.MustCompile(`cooper\s*se`), "cooper se"},
	{regexp.MustCompile(`cooper\s*s\s*e\b`), "cooper s e"},
	{regexp.MustCompile(`cooper\s*sd\b`), "cooper sd"},
	{regexp.MustCompile(`cooper\s*s\b`), "cooper s"},
	{regexp.MustCompile(`cooper\s*d\b`), "cooper d"},
	{regexp.MustCompile(`cooper\s*c\b`), "cooper c"},
	{regexp.MustCompile(`cooper\s*e\b`), "cooper e"},
	{regexp.MustCompile(`\bs\s*all4`), "s all4"},
	{regexp.MustCompile(`\bse\s*all4`), "se all4"},
	{regexp.MustCompile(`\bone\s*d\b`), "one d"},
	{regexp.MustCompile(`\bs\b`), "s"},
	{regexp.MustCompile(`\be\b`), "e"},
	{regexp.MustCompile(`\bd\b`), "d"},
	{regexp.MustCompile(`\bc\b`), "c"},
	{regexp.MustCompile(`cooper`), "cooper"},
}

var acemanTrims = []trim{
	{jcw, "jcw"},
	{regexp.MustCompile(`aceman\s*se`), "se"},
	{regexp.MustCompile(`aceman\s*e\b`), "e"},
}

var cabrioTrims = []trim{
	{jcw, "jcw"},
	{regexp.MustCompile(`cooper\s*s\b`), "cooper s"},
	{regexp.MustCompile(`cooper`), "cooper"},
}

var cooperTrims = []trim{
	{jcw, "jcw"},
	{regexp.MustCompile(`cooper\s*se`), "se"},
	{regexp.MustCompile(`cooper\s*s\b`), "s"},
}

var (
	doors     = regexp.MustCompile(`\b(\d+)\s*puertas?\b`)
	crossover = regexp.MustCompile(`\b(countryman|clubman|paceman)\b`)
	aceman    = regexp.MustCompile(`aceman`)
	cabrio    = regexp.MustCompile(`cabrio`)
	cooper    = regexp.MustCompile(`cooper`)
)

// mini resolves the MINI families. Door-count bodies are checked before the
// bare Cooper line because "MINI 3 Puertas Cooper S" is a door-count model.
func mini(s string) (string, string, bool) {
	if m := doors.FindStringSubmatch(s); m != nil {
		return "mini " + m[1] + " puertas", firstTrim(s, doorTrims), true
	}
	if m := crossover.FindStringSubmatch(s); m != nil {
		return "mini " + m[1], firstTrim(s, crossoverTrims), true
	}
	switch {
	case aceman.MatchString(s):
		return "mini aceman", firstTrim(s, acemanTrims), true
	case cabrio.MatchString(s):
		return "mini cabrio", firstTrim(s, cabrioTrims), true
	case cooper.MatchString(s):
		return "mini cooper", firstTrim(s, cooperTrims), true
	}
	return "", "", false
}
