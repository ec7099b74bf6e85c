package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(&out, strings.NewReader(stdin))
	err := app.Run(append([]string{"promptscore"}, args...))
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "", "--json", "score",
		"--target", "Life is unfair",
		"--generated", "Honestly, life is unfair sometimes.",
		"--prompt", "write a sad sentence about fairness")
	require.NoError(t, err)

	var r domain.ScoringResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 5, r.Score)
	assert.True(t, r.ExactMatch)
}

func TestScoreCommandStdinAndText(t *testing.T) {
	out, err := run(t, "alpha and nothing else", "score", "-t", "alpha bravo", "-g", "-", "--prompt", "say hi")
	require.NoError(t, err)
	assert.Contains(t, out, "Score:     2/5")
	assert.Contains(t, out, "Matched:   alpha")
	assert.Contains(t, out, "Total:     alpha, bravo")
}

func TestScoreCommandRejectsUnknownAlgorithm(t *testing.T) {
	_, err := run(t, "", "score", "-t", "a b", "-g", "a b", "--fuzzy", "soundex")
	assert.Error(t, err)
}

func TestArtCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cat.txt")
	require.NoError(t, os.WriteFile(target, []byte(" /\\_/\\\n( o.o )\n > ^ <\n"), 0o644))

	out, err := run(t, " /\\_/\\\n( o.o )\n > ^ <", "--json", "art", "--target-file", target, "--generated-file", "-", "--prompt", "draw a cat")
	require.NoError(t, err)

	var r domain.ScoringResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 5, r.Score)
	assert.Equal(t, domain.KindArt, r.Kind)
}

func TestCheatCommand(t *testing.T) {
	out, err := run(t, "", "--json", "cheat", "-t", "The cage is out of the lion", "--prompt", "write that the cage is out tonight")
	require.NoError(t, err)

	var report CheatReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Flagged)
	assert.Equal(t, "ordered_subset", report.Rule)

	out, err = run(t, "", "cheat", "-t", "Life is unfair", "--prompt", "write a sad sentence about fairness")
	require.NoError(t, err)
	assert.Contains(t, out, "ok:")
}

func TestCheatCommandMatchesScore(t *testing.T) {
	const (
		target = "Life is unfair"
		prompt = "life unfare"
	)
	tests := []struct {
		name        string
		fuzzy       []string
		wantFlagged bool
	}{
		{"levenshtein", nil, false},
		{"jaro-winkler", []string{"--fuzzy", "jaro-winkler"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--json", "cheat", "-t", target, "--prompt", prompt}, tt.fuzzy...)
			out, err := run(t, "", args...)
			require.NoError(t, err)
			var report CheatReport
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Equal(t, tt.wantFlagged, report.Flagged)

			args = append([]string{"--json", "score", "-t", target, "-g", target, "--prompt", prompt}, tt.fuzzy...)
			out, err = run(t, "", args...)
			require.NoError(t, err)
			var result domain.ScoringResult
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.Equal(t, report.Flagged, result.Flagged, "cheat and score must agree")
			if tt.wantFlagged {
				assert.Equal(t, "high_similarity", report.Rule)
				assert.Equal(t, 0, result.Score)
			}
		})
	}
}

func TestKeywordsCommand(t *testing.T) {
	out, err := run(t, "", "keywords", "The", "quick", "brown", "fox")
	require.NoError(t, err)
	assert.Equal(t, "quick, brown, fox\n", out)

	_, err = run(t, "", "keywords")
	assert.Error(t, err)
}

func TestPolicyFlag(t *testing.T) {
	policy := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(policy, []byte("[phrase]\nkeyword_similarity = 2.0\n"), 0o644))

	_, err := run(t, "", "--policy", policy, "score", "-t", "a b", "-g", "a b")
	assert.Error(t, err)
}
