// Command promptscore scores generated text from the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stdin).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer, in io.Reader) *cli.App {
	return &cli.App{
		Name:      "promptscore",
		Usage:     "Score model output against a hidden target and detect leaky prompts",
		Writer:    out,
		Reader:    in,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "policy",
				Aliases: []string{"p"},
				Usage:   "TOML scoring policy file",
				EnvVars: []string{"PROMPTSCORE_POLICY_FILE"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
			&cli.BoolFlag{
				Name:  "optimized",
				Usage: "Use the pooled ASCII normalizer",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log scoring decisions to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "score",
				Usage:  "Score generated text against a target phrase",
				Action: scoreCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Target phrase", Required: true},
					&cli.StringFlag{Name: "generated", Aliases: []string{"g"}, Usage: "Generated text (- reads stdin)", Required: true},
					&cli.StringFlag{Name: "prompt", Usage: "Player instruction"},
					&cli.StringFlag{Name: "fuzzy", Usage: "Fuzzy algorithm: levenshtein, damerau-levenshtein or jaro-winkler"},
					&cli.BoolFlag{Name: "stem", Usage: "Also match keywords by Porter2 stem"},
				},
			},
			{
				Name:   "art",
				Usage:  "Score generated ASCII art against a target drawing",
				Action: artCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "target-file", Usage: "File holding the target art", Required: true},
					&cli.StringFlag{Name: "generated-file", Usage: "File holding the generated art (- reads stdin)", Required: true},
					&cli.StringFlag{Name: "prompt", Usage: "Player instruction"},
				},
			},
			{
				Name:   "cheat",
				Usage:  "Check whether a prompt leaks the target phrase",
				Action: cheatCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "target", Aliases: []string{"t"}, Usage: "Target phrase", Required: true},
					&cli.StringFlag{Name: "prompt", Usage: "Player instruction", Required: true},
					&cli.StringFlag{Name: "fuzzy", Usage: "Fuzzy algorithm: levenshtein, damerau-levenshtein or jaro-winkler"},
				},
			},
			{
				Name:      "keywords",
				Usage:     "Print the keywords extracted from a phrase",
				ArgsUsage: "<phrase>",
				Action:    keywordsCommand,
			},
		},
	}
}
