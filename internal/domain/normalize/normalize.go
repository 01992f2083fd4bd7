// Package normalize extracts a canonical {base, variant, power} descriptor
// from free-text BMW and MINI model strings.
//
// Recognition is an ordered list of rules; the first rule whose predicate
// matches and whose extractor yields a base wins. Strings no rule recognises
// keep the whole lowercased text as their base.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/comparador/internal/domain/model"
)

// kWToCV converts kilowatts to metric horsepower.
const kWToCV = 1.36

var (
	cvAnnotation  = regexp.MustCompile(`(?i)\(\s*(\d+)\s*cv\s*\)`)
	kwAnnotation  = regexp.MustCompile(`(?i)\b(\d+)\s*kw\b`)
	trailingPower = regexp.MustCompile(`\s(\d{2,3})$`)
	emptyParens   = regexp.MustCompile(`\(\s*\)`)
	spaces        = regexp.MustCompile(`\s+`)
)

type rule struct {
	name    string
	matches *regexp.Regexp
	extract func(s string) (base, variant string, ok bool)
}

var rules = []rule{
	{
		name:    "bmw ix numbered",
		matches: regexp.MustCompile(`\bix\d+`),
		extract: submatch(regexp.MustCompile(`\b(ix\d+)\s*([ex]?drive\d+|m\d+)?`)),
	},
	{
		name:    "bmw ix",
		matches: regexp.MustCompile(`\bix\b`),
		extract: submatch(regexp.MustCompile(`\b(ix)\s*([ex]?drive\d+|m\d+)?`)),
	},
	{
		name:    "bmw i",
		matches: regexp.MustCompile(`\bi\d+`),
		extract: submatch(regexp.MustCompile(`\b(i\d+)\s*([ex]?drive\d+|m\d+)?`)),
	},
	{
		name:    "bmw serie",
		matches: regexp.MustCompile(`s[ei]?rie?\s*\d`),
		extract: serie,
	},
	{
		name:    "bmw x",
		matches: regexp.MustCompile(`\bx\d\b`),
		extract: submatch(regexp.MustCompile(`\b(x\d+)\s*([a-z]*drive\d+[a-z]*)?`)),
	},
	{
		name:    "bmw z",
		matches: regexp.MustCompile(`\bz\d\b`),
		extract: submatch(regexp.MustCompile(`\b(z\d+)\s*(\d{2,3}[a-z]*)?`)),
	},
	{
		name:    "mini",
		matches: regexp.MustCompile(`mini`),
		extract: mini,
	},
}

// Normalize returns the descriptor for a model string.
func Normalize(text string) model.ModelDescriptor {
	s := spaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
	power, s := extractPower(s)

	d := model.ModelDescriptor{PowerHP: power}
	for _, r := range rules {
		if !r.matches.MatchString(s) {
			continue
		}
		if base, variant, ok := r.extract(s); ok {
			d.Base, d.Variant = base, variant
			return d
		}
		break
	}
	d.Base = s
	return d
}

// Power returns only the power component of a model string.
func Power(text string) *int {
	p, _ := extractPower(strings.ToLower(strings.TrimSpace(text)))
	return p
}

// extractPower reads power with the precedence "(NNN CV)", "NNN kW", trailing
// integer, and returns the string with every power annotation removed.
func extractPower(s string) (*int, string) {
	var power *int
	if m := cvAnnotation.FindStringSubmatch(s); m != nil {
		power = atoi(m[1])
	} else if m := kwAnnotation.FindStringSubmatch(s); m != nil {
		if kw := atoi(m[1]); kw != nil {
			cv := int(math.Round(float64(*kw) * kWToCV))
			power = &cv
		}
	}

	if power != nil {
		s = cvAnnotation.ReplaceAllString(s, " ")
		s = kwAnnotation.ReplaceAllString(s, " ")
		s = emptyParens.ReplaceAllString(s, " ")
	} else if m := trailingPower.FindStringSubmatch(s); m != nil {
		power = atoi(m[1])
		s = trailingPower.ReplaceAllString(s, "")
	}
	return power, strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func submatch(re *regexp.Regexp) func(string) (string, string, bool) {
	return func(s string) (string, string, bool) {
		m := re.FindStringSubmatch(s)
		if m == nil {
			return "", "", false
		}
		return m[1], m[2], true
	}
}

var serieRe = regexp.MustCompile(`s[ei]?rie?\s*(\d+)\s*(\d{3}[a-z]*)?\s*(gran\s*coupe|coupe|touring|cabrio|compact)?`)

func serie(s string) (string, string, bool) {
	m := serieRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	variant := m[2]
	if m[3] != "" {
		variant += " " + spaces.ReplaceAllString(m[3], " ")
	}
	return "serie " + m[1], strings.TrimSpace(variant), true
}

func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
