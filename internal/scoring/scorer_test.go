package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantTotal float64
		wantErr   bool
	}{
		{
			name:      "plain json",
			response:  `{"content_score": 20, "impact_score": 18.5, "skills_score": 20, "formatting_score": 10, "summary": "Solid."}`,
			wantTotal: 68.5,
		},
		{
			name:      "wrapped in markdown",
			response:  "```json\n{\"content_score\": 30, \"impact_score\": 30, \"skills_score\": 25, \"formatting_score\": 15}\n```",
			wantTotal: 100,
		},
		{
			name:      "out of range values clamped",
			response:  `{"content_score": 90, "impact_score": -4, "skills_score": 26, "formatting_score": 15}`,
			wantTotal: 70,
		},
		{
			name:     "no json",
			response: "I cannot score this resume.",
			wantErr:  true,
		},
		{
			name:     "broken json",
			response: `{"content_score": "high"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseResponse(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTotal, res.TotalScore, 0.001)
			assert.GreaterOrEqual(t, res.TotalScore, 0.0)
			assert.LessOrEqual(t, res.TotalScore, 100.0)
		})
	}
}

func TestLLMScorerScore(t *testing.T) {
	llm := &fakeLLM{response: `{"content_score": 25, "impact_score": 20, "skills_score": 15, "formatting_score": 12, "summary": "Quantify more outcomes."}`}

	res, err := NewLLMScorer(llm).Score(context.Background(), strings.Repeat("Built things. ", 20), "Backend Engineer")
	require.NoError(t, err)

	assert.Equal(t, 72.0, res.TotalScore)
	assert.Equal(t, "Quantify more outcomes.", res.Summary)
	assert.Contains(t, llm.prompt, "Backend Engineer")
	assert.Contains(t, llm.prompt, "Built things.")
}

func TestLLMScorerPropagatesErrors(t *testing.T) {
	_, err := NewLLMScorer(&fakeLLM{err: errors.New("quota exceeded")}).Score(context.Background(), "resume", "")
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = NewLLMScorer(&fakeLLM{response: "nope"}).Score(context.Background(), "resume", "")
	assert.ErrorContains(t, err, "no JSON found")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "abc", Sanitize("  a\x00b\xffc \n"))
	assert.Equal(t, "héllo", Sanitize("héllo"))
}

func TestValidateResume(t *testing.T) {
	assert.Error(t, ValidateResume(strings.Repeat("a", MinResumeLen-1)))
	assert.NoError(t, ValidateResume(strings.Repeat("a", MinResumeLen)))
	assert.NoError(t, ValidateResume(strings.Repeat("é", MinResumeLen)))
	assert.Error(t, ValidateResume(strings.Repeat("a", MaxResumeLen+1)))
}
