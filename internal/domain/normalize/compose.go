package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// miniTrimLabels are the display names appended to a MINI stock model,
// checked against the snapshot's version column in order.
var miniTrimLabels = []trim{
	{regexp.MustCompile(`(?i)john\s*cooper\s*works|jcw`), "John Cooper Works"},
	{regexp.MustCompile(`(?i)cooper\s*se\b`), "Cooper SE"},
	{regexp.MustCompile(`(?i)cooper\s*s\s*e\b`), "Cooper S E"},
	{regexp.MustCompile(`(?i)cooper\s*sd\b`), "Cooper SD"},
	{regexp.MustCompile(`(?i)cooper\s*s\b`), "Cooper S"},
	{regexp.MustCompile(`(?i)cooper\s*e\b`), "Cooper E"},
	{regexp.MustCompile(`(?i)cooper\s*d\b`), "Cooper D"},
	{regexp.MustCompile(`(?i)cooper\s*c\b`), "Cooper C"},
	{regexp.MustCompile(`(?i)cooper`), "Cooper"},
	{regexp.MustCompile(`(?i)\bone\s*d\b`), "One D"},
	{regexp.MustCompile(`(?i)\bone\b`), "One"},
	{regexp.MustCompile(`(?i)\bs\s*all4`), "S ALL4"},
	{regexp.MustCompile(`(?i)\bse\s*all4`), "SE ALL4"},
	{regexp.MustCompile(`(?i)\bs\b`), "S"},
	{regexp.MustCompile(`(?i)\be\b`), "E"},
	{regexp.MustCompile(`(?i)\bd\b`), "D"},
	{regexp.MustCompile(`(?i)\bc\b`), "C"},
}

// bmwTechnical picks the drivetrain or engine token out of a BMW version,
// e.g. "xDrive20d", "eDrive40", "M50", "320d".
var bmwTechnical = regexp.MustCompile(`(?i)([ex]?drive\d+[a-z]*|\bm\d+[a-z]*|\b\d{3}[a-z]+)`)

// ComposeStockModel builds the stock-side model string from the snapshot's
// model and version columns: model, trim or technical token, then power.
//
//	ComposeStockModel("X3", "xDrive20d 140 kW (190 CV)") == "X3 xDrive20d 190"
func ComposeStockModel(modelName, version string) string {
	modelName = strings.TrimSpace(modelName)
	version = strings.TrimSpace(version)
	if version == "" {
		return modelName
	}

	composed := modelName
	if strings.Contains(strings.ToLower(modelName), "mini") {
		for _, t := range miniTrimLabels {
			if t.re.MatchString(version) {
				composed += " " + t.name
				break
			}
		}
	} else if m := bmwTechnical.FindString(version); m != "" {
		composed += " " + m
	} else {
		composed += " " + strings.Fields(version)[0]
	}

	if cv := versionPower(version); cv != nil {
		composed += " " + strconv.Itoa(*cv)
	}
	return composed
}

// DisplayModel appends the annotated power of a competitor model string to
// its end, so both sides of a comparison read the same way.
func DisplayModel(raw string) string {
	raw = strings.TrimSpace(raw)
	m := cvAnnotation.FindStringSubmatch(raw)
	if m == nil || trailingPower.MatchString(raw) {
		return raw
	}
	return raw + " " + m[1]
}

func versionPower(version string) *int {
	if m := cvAnnotation.FindStringSubmatch(version); m != nil {
		return atoi(m[1])
	}
	if m := kwAnnotation.FindStringSubmatch(version); m != nil {
		if kw := atoi(m[1]); kw != nil {
			cv := int(math.Round(float64(*kw) * kWToCV))
			return &cv
		}
	}
	return nil
}
