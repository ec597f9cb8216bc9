package kernel

import (
	"strings"
	"time"
)

const persona = "You are InsightBot, a smart and friendly AI assistant."

const behaviorPolicy = "BEHAVIOR POLICY:\n" +
	"1. GREETINGS: Respond warmly. Do NOT search for these.\n" +
	"2. DOMAIN: Use 'web_search' for news/current events not in docs.\n" +
	"3. HIERARCHY: Documents > Web > Base Knowledge.\n" +
	"4. IMAGES: Use 'generate_image' only when the user explicitly asks for an image.\n"

// SystemPrompt builds the instruction sent ahead of the transcript. The
// document context, when present, is marked as the authoritative source.
func SystemPrompt(now time.Time, docContext string) string {
	var b strings.Builder
	b.WriteString("Current Date: " + now.Format("Monday, January 02, 2006") + "\n")
	b.WriteString("Current Time: " + now.Format("03:04:05 PM") + "\n\n")
	b.WriteString(persona + "\n\n")

	if docContext != "" {
		b.WriteString("DOCUMENT CONTEXT:\n")
		b.WriteString(docContext)
		b.WriteString("\n\n")
	}

	b.WriteString(behaviorPolicy)
	return b.String()
}
