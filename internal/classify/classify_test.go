// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/internal/oracle"
	"github.com/SitaoZheng/Knowledge-Organizer-base-on-AI-agent/pkg/types"
)

// scriptedOracle returns a fixed response and captures the prompt.
type scriptedOracle struct {
	response string
	err      error
	prompt   string
}

func (s *scriptedOracle) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestClassifyRecordsChoice(t *testing.T) {
	o := &scriptedOracle{response: `{"level1": "Technology", "level2": "AI", "level3": "LLMs"}`}
	var mem types.PreferenceMemory

	path, err := Classify(context.Background(), o, "some excerpt", "doc.txt", &mem, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryPath{Level1: "Technology", Level2: "AI", Level3: "LLMs"}, path)

	// The chosen path and both prefixes are counted.
	assert.Equal(t, 1, mem.CategoryCounts["Technology/AI/LLMs"])
	assert.Equal(t, 1, mem.CategoryCounts["Technology/AI"])
	assert.Equal(t, 1, mem.CategoryCounts["Technology"])
}

func TestClassifyDoesNotRecordOnFailure(t *testing.T) {
	o := &scriptedOracle{response: "I cannot classify this document."}
	var mem types.PreferenceMemory

	_, err := Classify(context.Background(), o, "some excerpt", "doc.txt", &mem, 5, 0)
	require.ErrorIs(t, err, ErrMalformed)
	assert.Zero(t, mem.TotalCount())
}

func TestClassifyOracleFailure(t *testing.T) {
	o := &scriptedOracle{err: fmt.Errorf("connection refused")}
	var mem types.PreferenceMemory

	_, err := Classify(context.Background(), o, "some excerpt", "doc.txt", &mem, 5, 0)
	require.ErrorIs(t, err, ErrOracle)
	assert.Zero(t, mem.TotalCount())
}

func TestClassifyPromptCarriesBiasAndExcerpt(t *testing.T) {
	o := &scriptedOracle{response: `{"level1": "A", "level2": "B", "level3": "C"}`}
	var mem types.PreferenceMemory
	mem.RecordChoice(types.CategoryPath{Level1: "Technology", Level2: "AI", Level3: "LLMs"})
	mem.RecordChoice(types.CategoryPath{Level1: "Technology", Level2: "AI", Level3: "LLMs"})
	mem.RecordChoice(types.CategoryPath{Level1: "Life", Level2: "Cooking", Level3: "Recipes"})

	_, err := Classify(context.Background(), o, "the document text", "report.pdf", &mem, 2, 0)
	require.NoError(t, err)

	assert.Contains(t, o.prompt, "- Technology/AI/LLMs")
	assert.Contains(t, o.prompt, "- Life/Cooking/Recipes")
	assert.Contains(t, o.prompt, "report.pdf")
	assert.Contains(t, o.prompt, oracle.PayloadOpen+"\nthe document text\n"+oracle.PayloadClose)

	// The frequent path is listed before the rare one.
	assert.Less(t,
		strings.Index(o.prompt, "Technology/AI/LLMs"),
		strings.Index(o.prompt, "Life/Cooking/Recipes"))
}

func TestClassifyEmptyMemoryOmitsBiasSection(t *testing.T) {
	o := &scriptedOracle{response: `{"level1": "A", "level2": "B", "level3": "C"}`}
	var mem types.PreferenceMemory

	_, err := Classify(context.Background(), o, "text", "doc.txt", &mem, 5, 0)
	require.NoError(t, err)
	assert.NotContains(t, o.prompt, "most common categories")
}

func TestClassifyWithMockOracle(t *testing.T) {
	var mem types.PreferenceMemory

	path, err := Classify(context.Background(), &oracle.Mock{},
		"Notes on Python generators and iterators.", "python_notes.txt", &mem, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, types.CategoryPath{
		Level1: "Technology", Level2: "Programming Language", Level3: "Python",
	}, path)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    types.CategoryPath
		wantErr error
	}{
		{
			name: "bare json",
			resp: `{"level1": "A", "level2": "B", "level3": "C"}`,
			want: types.CategoryPath{Level1: "A", Level2: "B", Level3: "C"},
		},
		{
			name: "fenced json",
			resp: "```json\n{\"level1\": \"A\", \"level2\": \"B\", \"level3\": \"C\"}\n```",
			want: types.CategoryPath{Level1: "A", Level2: "B", Level3: "C"},
		},
		{
			name: "json embedded in prose",
			resp: `Sure! The category is {"level1": "A", "level2": "B", "level3": "C"} as requested.`,
			want: types.CategoryPath{Level1: "A", Level2: "B", Level3: "C"},
		},
		{
			name: "whitespace around levels",
			resp: `{"level1": "  A ", "level2": "B", "level3": " C"}`,
			want: types.CategoryPath{Level1: "A", Level2: "B", Level3: "C"},
		},
		{
			name:    "missing level",
			resp:    `{"level1": "A", "level2": "B"}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "empty level",
			resp:    `{"level1": "A", "level2": "", "level3": "C"}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "no json at all",
			resp:    "I am not able to help with that.",
			wantErr: ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.resp)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got error %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
