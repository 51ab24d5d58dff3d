package scanner

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

const analysisPrompt = `
	You are a health and environment expert. Analyze this packed food or product and return the following:

	1. Health-related **Pros** and **Cons** in short bullet points (maximum 5 each).
	2. A brief paragraph on the **environmental impact** (such as impact of production, packaging, or ingredients).

	Structure the answer under exactly these three headers, each on its own line:
	Pros:
	Cons:
	Environmental Impact:

	Product Name (if known): %s

	Full Label or Info:
`

// BuildPrompt renders the single-turn instruction sent to the generative
// provider. The label text is appended verbatim after the template so that
// its own indentation survives.
func BuildPrompt(guessedName, text string) string {
	header := fmt.Sprintf(strings.TrimSpace(dedent.Dedent(analysisPrompt)), guessedName)
	return header + "\n" + text
}
