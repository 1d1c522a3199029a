package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"fusion-agent-be/internal/bootstrap"
	"fusion-agent-be/internal/config"
	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type askOptions struct {
	stream      string
	threadID    string
	format      string
	interactive bool
	verbose     bool
}

// turnRunner is satisfied by *agent.Pipeline.
type turnRunner interface {
	Run(ctx context.Context, in agent.RunInput) *agent.RunResult
}

func newRootCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the reporting agent a question from the terminal",
		Long: `Run agent turns against the configured database, LLM and report service.

Pass the question as arguments for a single turn, or use --interactive
to keep a conversation going on one thread.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if !opts.interactive && len(args) == 0 {
				return fmt.Errorf("a question is required unless --interactive is set")
			}
			return nil
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := agent.ParseFormatPreference(opts.format)
			if err != nil {
				return err
			}

			runner, cleanup, err := buildRunner(opts.verbose)
			if err != nil {
				return err
			}
			defer cleanup()

			if opts.interactive {
				return converse(cmd.Context(), runner, opts, format, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			res := runTurn(cmd.Context(), runner, opts, format, strings.Join(args, " "), cmd.OutOrStdout())
			if !res.Succeeded() {
				return fmt.Errorf("turn failed: %s", res.Error.Kind)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.stream, "stream", "s", "scm", "domain stream (scm, hcm)")
	cmd.Flags().StringVarP(&opts.threadID, "thread", "t", "", "continue an existing thread")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(agent.FormatNaturalLanguage), "natural_language or table")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "read questions from stdin until EOF")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline stages to stderr")

	return cmd
}

func buildRunner(verbose bool) (turnRunner, func(), error) {
	cfg := config.Load()

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	db, err := database.Open(database.GormConfig{DSN: cfg.Database.Connection})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	container, err := bootstrap.NewContainer(db, cfg, bootstrap.Options{Logger: logger.NewConsoleLogger(level)})
	if err != nil {
		database.Close(db)
		return nil, nil, err
	}

	cleanup := func() {
		container.Close()
		database.Close(db)
	}
	return container.Pipeline, cleanup, nil
}

func runTurn(ctx context.Context, runner turnRunner, opts *askOptions, format agent.FormatPreference, question string, out io.Writer) *agent.RunResult {
	res := runner.Run(ctx, agent.RunInput{
		Question:         question,
		ThreadID:         opts.threadID,
		FormatPreference: format,
		DomainStream:     opts.stream,
	})
	opts.threadID = res.ThreadID
	printResult(out, res)
	return res
}

func converse(ctx context.Context, runner turnRunner, opts *askOptions, format agent.FormatPreference, in io.Reader, out io.Writer) error {
	prompt := color.New(color.FgCyan, color.Bold)
	scanner := bufio.NewScanner(in)

	for {
		prompt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		runTurn(ctx, runner, opts, format, question, out)
	}
}

func printResult(out io.Writer, res *agent.RunResult) {
	meta := color.New(color.FgHiBlack)
	meta.Fprintf(out, "thread %s · %s · %s\n", res.ThreadID, res.DomainStream, res.QuestionType)

	if res.Error != nil {
		color.New(color.FgRed).Fprintf(out, "[%s] ", res.Error.Kind)
		fmt.Fprintln(out, res.Response)
		return
	}

	color.New(color.FgGreen).Fprintln(out, res.Response)
	if res.Query != nil {
		meta.Fprintf(out, "query:\n%s\n", *res.Query)
	}
	if res.RowCount > 0 {
		meta.Fprintf(out, "%d records\n", res.RowCount)
	}
}
