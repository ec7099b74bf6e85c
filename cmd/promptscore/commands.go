package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/baditaflorin/go_prompt_score/internal/config"
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/pkg/scoring"
	"github.com/baditaflorin/l"
	"github.com/urfave/cli/v2"
)

// CheatReport is the JSON output of the cheat command.
type CheatReport struct {
	Flagged bool   `json:"flagged"`
	Rule    string `json:"rule,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// loadPolicy returns the built-in policy or the one named by --policy.
func loadPolicy(c *cli.Context) (config.Policy, error) {
	path := c.String("policy")
	if path == "" {
		return config.DefaultPolicy(), nil
	}
	policy, err := config.LoadPolicy(path)
	if err != nil {
		return config.Policy{}, fmt.Errorf("failed to load policy: %w", err)
	}
	return policy, nil
}

func newEngine(c *cli.Context, extra ...scoring.Option) (*scoring.Engine, error) {
	policy, err := loadPolicy(c)
	if err != nil {
		return nil, err
	}

	opts := []scoring.Option{
		scoring.WithPhraseConfig(policy.Phrase),
		scoring.WithArtConfig(policy.Art),
		scoring.WithConcurrency(1),
	}
	if c.Bool("verbose") {
		log, err := l.NewStandardFactory().CreateLogger(l.Config{
			Output:     c.App.ErrWriter,
			JsonFormat: c.Bool("json"),
			AsyncWrite: false,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		opts = append(opts, scoring.WithLogger(log))
	}
	if c.Bool("optimized") {
		opts = append(opts, scoring.WithOptimizedNormalizer())
	}
	return scoring.New(append(opts, extra...)...)
}

// phraseOptions maps the phrase scoring flags of the current command to engine options.
func phraseOptions(c *cli.Context) []scoring.Option {
	var opts []scoring.Option
	if name := c.String("fuzzy"); name != "" {
		opts = append(opts, scoring.WithFuzzyAlgorithm(name))
	}
	if c.Bool("stem") {
		opts = append(opts, scoring.WithStemming(true))
	}
	return opts
}

// scoreCommand scores generated text against a target phrase
func scoreCommand(c *cli.Context) error {
	generated, err := readValue(c, c.String("generated"))
	if err != nil {
		return err
	}

	engine, err := newEngine(c, phraseOptions(c)...)
	if err != nil {
		return err
	}
	defer engine.Close()

	return writeResult(c, engine.Score(c.String("target"), generated, c.String("prompt")))
}

// artCommand scores generated ASCII art against a target drawing
func artCommand(c *cli.Context) error {
	target, err := os.ReadFile(c.String("target-file"))
	if err != nil {
		return fmt.Errorf("failed to read target art: %w", err)
	}
	generated, err := readFileOrStdin(c, c.String("generated-file"))
	if err != nil {
		return err
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	return writeResult(c, engine.ScoreArt(string(target), generated, c.String("prompt")))
}

// cheatCommand reports whether the prompt leaks the target
func cheatCommand(c *cli.Context) error {
	engine, err := newEngine(c, phraseOptions(c)...)
	if err != nil {
		return err
	}
	defer engine.Close()

	v := engine.DetectCheating(c.String("prompt"), c.String("target"))
	report := CheatReport{Flagged: v.Cheating, Rule: string(v.Rule), Reason: v.Reason}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, report)
	}
	if !report.Flagged {
		fmt.Fprintln(c.App.Writer, "ok: prompt does not leak the target")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "flagged (%s): %s\n", report.Rule, report.Reason)
	return nil
}

// keywordsCommand prints the keywords of the phrase given as arguments
func keywordsCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a phrase is required")
	}
	keywords := text.ExtractKeywords(strings.Join(c.Args().Slice(), " "))

	if c.Bool("json") {
		return writeJSON(c.App.Writer, keywords)
	}
	fmt.Fprintln(c.App.Writer, strings.Join(keywords, ", "))
	return nil
}

func writeResult(c *cli.Context, r scoring.Result) error {
	if c.Bool("json") {
		return writeJSON(c.App.Writer, r)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Score:     %d/5\n", r.Score)
	fmt.Fprintf(w, "Reasoning: %s\n", r.Reasoning)
	if r.Flagged {
		fmt.Fprintf(w, "Flagged:   %s\n", r.FlagReason)
	}
	if len(r.KeywordsTotal) > 0 {
		fmt.Fprintf(w, "Matched:   %s\n", strings.Join(r.KeywordsMatched, ", "))
		if len(r.FuzzyMatched) > 0 {
			fmt.Fprintf(w, "Fuzzy:     %s\n", strings.Join(r.FuzzyMatched, ", "))
		}
		fmt.Fprintf(w, "Total:     %s\n", strings.Join(r.KeywordsTotal, ", "))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readValue returns s, or all of stdin when s is "-".
func readValue(c *cli.Context, s string) (string, error) {
	if s != "-" {
		return s, nil
	}
	b, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(b), nil
}

func readFileOrStdin(c *cli.Context, path string) (string, error) {
	if path == "-" {
		return readValue(c, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
