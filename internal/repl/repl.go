// Package repl implements the interactive chat loop for SQLBud. Every line is
// an independent request; nothing is carried between turns.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hpkotak/sqlbud/internal/query"
	"github.com/hpkotak/sqlbud/internal/render"
	"github.com/hpkotak/sqlbud/internal/safety"
)

// Generator is the pipeline a chat session talks to.
type Generator interface {
	Generate(ctx context.Context, req query.Request) query.Result
}

// Session holds the per-session settings applied to every line.
type Session struct {
	// Template supplies key, provider, model and system-table settings;
	// its NaturalLanguage is replaced by each line.
	Template query.Request
	Render   render.Options
}

// Run starts the interactive loop. It returns nil on exit, quit or EOF.
func Run(ctx context.Context, gen Generator, s Session, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintln(out, "SQLBud Chat (type 'exit' to quit)")
	_, _ = fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, "sqb> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				_, _ = fmt.Fprintf(out, "\nInput error: %v\n", err)
				return err
			}
			_, _ = fmt.Fprintln(out)
			return nil // EOF (Ctrl+D)
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			_, _ = fmt.Fprintln(out, "Bye!")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		req := s.Template
		req.NaturalLanguage = input
		handleTurn(ctx, gen, req, s.Render, out)
		_, _ = fmt.Fprintln(out)
	}
}

func handleTurn(ctx context.Context, gen Generator, req query.Request, opts render.Options, out io.Writer) {
	res := gen.Generate(ctx, req)

	text, err := render.Format(res, opts)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", text)

	if !res.Success || res.GeneratedQuery == "" {
		return
	}
	if w := safety.Classify(res.GeneratedQuery).Warning(); w != "" {
		_, _ = fmt.Fprintf(out, "\n  Warning: %s\n", w)
	}
}
