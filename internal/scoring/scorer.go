// Package scoring turns a resume into section scores through an LLM.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MinResumeLen = 200
	MaxResumeLen = 50000

	maxContent    = 30
	maxImpact     = 30
	maxSkills     = 25
	maxFormatting = 15
	maxSummaryLen = 1000
)

// Result is one scored resume. TotalScore is the sum of the sections and is
// always within 0..100.
type Result struct {
	TotalScore      float64
	ContentScore    float64
	ImpactScore     float64
	SkillsScore     float64
	FormattingScore float64
	Summary         string
}

type Scorer interface {
	Score(ctx context.Context, resumeText, targetRole string) (*Result, error)
}

// TextGenerator is the LLM call. *llm.VertexAIClient implements it.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type LLMScorer struct {
	llm TextGenerator
}

func NewLLMScorer(llm TextGenerator) *LLMScorer {
	return &LLMScorer{llm: llm}
}

func (s *LLMScorer) Score(ctx context.Context, resumeText, targetRole string) (*Result, error) {
	response, err := s.llm.GenerateContent(ctx, buildPrompt(resumeText, targetRole))
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}
	res, err := ParseResponse(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scores: %w", err)
	}
	return res, nil
}

// Sanitize makes text valid UTF-8 without NUL bytes, which PostgreSQL
// rejects, and trims surrounding whitespace.
func Sanitize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(text)
}

// ValidateResume checks the sanitized length in characters.
func ValidateResume(text string) error {
	n := utf8.RuneCountInString(text)
	if n < MinResumeLen {
		return fmt.Errorf("resume_text must be at least %d characters", MinResumeLen)
	}
	if n > MaxResumeLen {
		return fmt.Errorf("resume_text must be at most %d characters", MaxResumeLen)
	}
	return nil
}

func buildPrompt(resumeText, targetRole string) string {
	var sb strings.Builder

	sb.WriteString("You are an experienced technical recruiter reviewing a resume. Score it strictly and consistently.\n\n")
	if targetRole != "" {
		sb.WriteString(fmt.Sprintf("## TARGET ROLE\n%s\n\n", targetRole))
	}
	sb.WriteString("## RESUME\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\n")

	sb.WriteString("Provide your evaluation in the following JSON format:\n")
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf(`  "content_score": <0-%d>,`+"\n", maxContent))
	sb.WriteString(fmt.Sprintf(`  "impact_score": <0-%d>,`+"\n", maxImpact))
	sb.WriteString(fmt.Sprintf(`  "skills_score": <0-%d>,`+"\n", maxSkills))
	sb.WriteString(fmt.Sprintf(`  "formatting_score": <0-%d>,`+"\n", maxFormatting))
	sb.WriteString(`  "summary": "<two or three sentences of actionable feedback>"` + "\n")
	sb.WriteString("}\n\n")

	sb.WriteString("SCORING CRITERIA:\n")
	sb.WriteString(fmt.Sprintf("- Content (0-%d): relevance and completeness of experience and education", maxContent))
	if targetRole != "" {
		sb.WriteString(" for the target role")
	}
	sb.WriteString(".\n")
	sb.WriteString(fmt.Sprintf("- Impact (0-%d): quantified achievements and ownership rather than duty lists.\n", maxImpact))
	sb.WriteString(fmt.Sprintf("- Skills (0-%d): concrete, current, evidenced skills.\n", maxSkills))
	sb.WriteString(fmt.Sprintf("- Formatting (0-%d): structure, brevity and readability.\n\n", maxFormatting))
	sb.WriteString("Return ONLY the JSON object, no additional text.\n")

	return sb.String()
}

type llmScores struct {
	ContentScore    float64 `json:"content_score"`
	ImpactScore     float64 `json:"impact_score"`
	SkillsScore     float64 `json:"skills_score"`
	FormattingScore float64 `json:"formatting_score"`
	Summary         string  `json:"summary"`
}

// ParseResponse extracts the JSON object from an LLM reply, clamps every
// section to its range and derives the total.
func ParseResponse(response string) (*Result, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var raw llmScores
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	res := &Result{
		ContentScore:    clamp(raw.ContentScore, maxContent),
		ImpactScore:     clamp(raw.ImpactScore, maxImpact),
		SkillsScore:     clamp(raw.SkillsScore, maxSkills),
		FormattingScore: clamp(raw.FormattingScore, maxFormatting),
		Summary:         truncate(Sanitize(raw.Summary), maxSummaryLen),
	}
	res.TotalScore = round2(res.ContentScore + res.ImpactScore + res.SkillsScore + res.FormattingScore)
	return res, nil
}

func clamp(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
