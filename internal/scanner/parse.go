package scanner

import (
	"regexp"
	"strings"
)

const (
	// MaxListItems caps both the pros and the cons list.
	MaxListItems = 5
	// MaxGuessedNameLength caps the product name guessed from OCR text.
	MaxGuessedNameLength = 50

	// ImpactFallback is used when the response has no environmental impact section.
	ImpactFallback = "No environmental impact data available. Try scanning a popular product or one with clearer labeling."
	// ErrorImpactFallback is used when the analysis run failed.
	ErrorImpactFallback = "No data available due to analysis error."
	// ErrorNotice replaces the detected text on surfaces after a failed run.
	ErrorNotice = "Error analyzing the product. Please try again."
)

var (
	prosSection   = regexp.MustCompile(`(?is)Pros:(.*?)(Cons:|Environmental Impact:|$)`)
	consSection   = regexp.MustCompile(`(?is)Cons:(.*?)(Environmental Impact:|$)`)
	impactSection = regexp.MustCompile(`(?is)Environmental Impact:(.*)`)
)

// GuessName returns the first line of the recognized text, capped at
// MaxGuessedNameLength characters. It is advisory context for the prompt.
func GuessName(raw string) string {
	first, _, _ := strings.Cut(raw, "\n")
	runes := []rune(first)
	if len(runes) > MaxGuessedNameLength {
		runes = runes[:MaxGuessedNameLength]
	}
	return string(runes)
}

// ParseAnalysis recovers pros, cons and the environmental impact paragraph
// from a free-text model response structured only by the literal headers
// "Pros:", "Cons:" and "Environmental Impact:". It never fails: missing
// sections become empty lists or the fallback impact text.
func ParseAnalysis(text string) AnalysisResult {
	pros := cleanList(sectionLines(prosSection, text))
	if len(pros) > MaxListItems {
		pros = pros[:MaxListItems]
	}

	cons := cleanList(sectionLines(consSection, text))
	cons = withoutDuplicates(cons, pros)
	if len(cons) > MaxListItems {
		cons = cons[:MaxListItems]
	}

	impact := ImpactFallback
	if m := impactSection.FindStringSubmatch(text); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			impact = s
		}
	}

	return AnalysisResult{
		Pros:                pros,
		Cons:                cons,
		EnvironmentalImpact: impact,
	}
}

// FailedAnalysis is the result presented when recognition or interpretation failed.
func FailedAnalysis() AnalysisResult {
	return AnalysisResult{
		Pros:                []string{},
		Cons:                []string{},
		EnvironmentalImpact: ErrorImpactFallback,
	}
}

func sectionLines(re *regexp.Regexp, text string) []string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return strings.Split(strings.TrimSpace(m[1]), "\n")
}

// cleanList strips one leading bullet marker per line, trims it and drops
// empty lines.
func cleanList(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			line = line[1:]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func withoutDuplicates(items, exclude []string) []string {
	seen := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		seen[strings.ToLower(e)] = struct{}{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[strings.ToLower(item)]; dup {
			continue
		}
		out = append(out, item)
	}
	return out
}
