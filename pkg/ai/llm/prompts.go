package llm

import (
	"fmt"
	"strings"
)

// System prompts for the analysis pipeline and chat agent

const (
	// ScoringSystemPrompt drives phase one of the two-phase pipeline. It is
	// deliberately narrow: four numeric scores with short notes, nothing else.
	ScoringSystemPrompt = `You are a strict evaluator of GitHub profiles for employability.

Score exactly four categories from 0 to 100 based only on the metrics provided:
- activity: commit frequency, contribution consistency, recency
- skillSignals: language breadth, project complexity, code volume
- growth: trajectory over time,adoption of new technologies, improving cadence
- collaboration: pull requests, issues, forks of others' work, community involvement

Rules:
1. Be consistent: identical metrics must produce identical scores
2. Each score gets a one-sentence note citing the metric that drove it
3. Do not compute any overall score or verdict
4. Respond with JSON only, no markdown fences, matching:
{"activity":{"score":0,"note":""},"skillSignals":{"score":0,"note":""},"growth":{"score":0,"note":""},"collaboration":{"score":0,"note":""}}`

	// SynthesisSystemPrompt drives phase two. The category scores are fixed
	// inputs; the model writes narrative around them and must not change them.
	SynthesisSystemPrompt = `You are a career coach reviewing a GitHub profile that has already been scored.

The four category scores are final. Do not recompute, adjust, or contradict them.

Write:
- summary: 2-3 sentences on where this developer stands
- recommendations: 3 to 6 concrete next actions, most impactful first
- insights: strength (their best signal), weakness (their biggest gap), nextMove (the single highest-leverage action)

Respond with JSON only, no markdown fences, matching:
{"summary":"","recommendations":[""],"insights":{"strength":"","weakness":"","nextMove":""}}`

	// AnalysisSystemPrompt drives the single-phase pipeline: scores and
	// narrative in one payload. The overall level is still computed locally.
	AnalysisSystemPrompt = `You are an expert evaluator of GitHub profiles for employability.

Score four categories from 0 to 100 based only on the metrics provided:
activity, skillSignals, growth, collaboration.

Then write a 2-3 sentence summary, 3 to 6 concrete recommendations, and three
insights: strength, weakness, nextMove.

Do not compute any overall score; that is derived elsewhere.

Respond with JSON only, no markdown fences, matching:
{"categoryScores":{"activity":{"score":0,"note":""},"skillSignals":{"score":0,"note":""},"growth":{"score":0,"note":""},"collaboration":{"score":0,"note":""}},"summary":"","recommendations":[""],"insights":{"strength":"","weakness":"","nextMove":""}}`

	// ProjectsSystemPrompt drives project recommendations.
	ProjectsSystemPrompt = `You are a project mentor recommending portfolio projects.

Given a GitHub profile's metrics and analysis, recommend exactly 4 projects
that would most improve this developer's employability. Each project:
- title: short and specific
- description: 2-3 sentences of scope
- stack: 1 to 6 technologies, favoring ones adjacent to what they know
- difficulty: one of "starter", "intermediate", "advanced"
- reason: one sentence tying it to a gap in their profile

Respond with JSON only, no markdown fences, matching:
{"projects":[{"title":"","description":"","stack":[""],"difficulty":"","reason":""}]}`

	// ChatSystemPrompt drives follow-up conversation about an analysis.
	ChatSystemPrompt = `You are the AmICooked career assistant. The user has had their GitHub
profile analyzed and wants to discuss the results.

Ground every answer in the analysis and metrics provided. Be direct and
practical; suggest concrete actions over platitudes. Keep answers under 200
words unless asked to elaborate.`

	// MemoryExtractionSystemPrompt summarizes a finished session into durable
	// memory items.
	MemoryExtractionSystemPrompt = `You extract durable facts from a coaching conversation.

From the transcript, produce 0 to 5 memory items worth keeping for future
sessions: stated goals, personal context, decisions made, strong preferences.
Skip anything already in the existing memory list. Skip small talk.

Each item: type is one of "insight", "summary", "goal", "other".

Respond with JSON only, no markdown fences, matching:
{"items":[{"type":"","content":""}]}`
)

// tone modifiers appended to chat and synthesis prompts
var tonePrompts = map[string]string{
	"brutal":     "Tone: brutally honest. No softening, no hedging.",
	"supportive": "Tone: encouraging. Lead with strengths before gaps.",
	"neutral":    "",
}

// ToneSuffix returns the prompt modifier for a tone, empty for unknown tones.
func ToneSuffix(tone string) string {
	return tonePrompts[tone]
}

// ScoringPrompt renders the phase-one user prompt from raw metrics JSON.
func ScoringPrompt(statsJSON string) string {
	return fmt.Sprintf("GitHub profile metrics:\n%s\n\nScore the four categories.", statsJSON)
}

// SynthesisPrompt renders the phase-two user prompt. The scores JSON is the
// verbatim phase-one output so phase two cannot drift from it.
func SynthesisPrompt(statsJSON, scoresJSON, previousSummary, nickname, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GitHub profile metrics:\n%s\n\n", statsJSON)
	fmt.Fprintf(&b, "Final category scores (do not change):\n%s\n", scoresJSON)
	if previousSummary != "" {
		fmt.Fprintf(&b, "\nPrevious analysis summary, for continuity:\n%s\n", previousSummary)
	}
	if nickname != "" {
		fmt.Fprintf(&b, "\nAddress the user as %q.\n", nickname)
	}
	if suffix := ToneSuffix(tone); suffix != "" {
		fmt.Fprintf(&b, "\n%s\n", suffix)
	}
	b.WriteString("\nWrite the narrative fields.")
	return b.String()
}

// AnalysisPrompt renders the single-phase user prompt.
func AnalysisPrompt(statsJSON, previousSummary, nickname, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GitHub profile metrics:\n%s\n", statsJSON)
	if previousSummary != "" {
		fmt.Fprintf(&b, "\nPrevious analysis summary, for continuity:\n%s\n", previousSummary)
	}
	if nickname != "" {
		fmt.Fprintf(&b, "\nAddress the user as %q.\n", nickname)
	}
	if suffix := ToneSuffix(tone); suffix != "" {
		fmt.Fprintf(&b, "\n%s\n", suffix)
	}
	b.WriteString("\nScore the profile and write the narrative fields.")
	return b.String()
}

// ProjectsPrompt renders the project-recommendation user prompt.
func ProjectsPrompt(statsJSON, analysisJSON string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GitHub profile metrics:\n%s\n", statsJSON)
	if analysisJSON != "" {
		fmt.Fprintf(&b, "\nLatest analysis:\n%s\n", analysisJSON)
	}
	b.WriteString("\nRecommend exactly 4 projects.")
	return b.String()
}

// MemoryExtractionPrompt renders the end-of-session extraction prompt.
func MemoryExtractionPrompt(transcript, existingMemoryJSON string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation transcript:\n%s\n", transcript)
	if existingMemoryJSON != "" {
		fmt.Fprintf(&b, "\nExisting memory items:\n%s\n", existingMemoryJSON)
	}
	b.WriteString("\nExtract new memory items.")
	return b.String()
}
