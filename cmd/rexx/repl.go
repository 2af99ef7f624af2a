package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/sandrolain/gorexx"
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/types"
)

const (
	historyFile = ".gorexx_history"
	promptMain  = "rexx> "
	promptCont  = "...   "
)

const helpText = `REPL commands:
  :vars          List the session's variables
  :drop <name>   Drop a variable or stem
  :state         Show the address and NUMERIC settings
  :quit          Exit the REPL
`

// repl reads clauses with liner and runs each block in one persistent
// session, so variables, ADDRESS and NUMERIC survive between inputs.
func repl(ev *evaluator.Evaluator, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "GoRexx %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", gorexx.Version())

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sess := ev.NewSession()
	for {
		src, ok := readBlock(ln, ev)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", "; "))

		if strings.HasPrefix(trimmed, ":") {
			if replCommand(sess, trimmed, stdout, stderr) {
				return 0
			}
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		res, err := sess.RunSource(ctx, src)
		stop()
		if err != nil {
			fmt.Fprintln(stderr, red(err.Error()))
			continue
		}
		if res.HasValue {
			fmt.Fprintln(stdout, blue(res.Value.String()))
		}
	}
}

// readBlock collects lines until they compile or fail for a reason other
// than running out of input, so DO/SELECT blocks can span prompts.
func readBlock(ln *liner.State, ev *evaluator.Evaluator) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, _, err := ev.Compile(src); incomplete(err) {
			continue
		}
		return src, true
	}
}

func incomplete(err error) bool {
	var te *types.Error
	return errors.As(err, &te) && te.Code == types.ErrSyntax && te.Found == "end of input"
}

// replCommand handles a ":" command and reports whether to exit.
func replCommand(sess *evaluator.Session, cmd string, stdout, stderr io.Writer) bool {
	fields := strings.Fields(cmd)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(stdout, helpText)
	case ":vars":
		for _, name := range sess.Variables() {
			v, _ := sess.Variable(name)
			fmt.Fprintf(stdout, "%s = %s\n", green(name), v.String())
		}
	case ":drop":
		if len(fields) != 2 {
			fmt.Fprintln(stderr, red("usage: :drop <name>"))
			break
		}
		sess.DropVariable(fields[1])
	case ":state":
		n := sess.Numeric()
		fmt.Fprintf(stdout, "ADDRESS %s\nNUMERIC DIGITS %d FUZZ %d FORM %s\n", sess.Address(), n.Digits, n.Fuzz, n.Form)
	default:
		fmt.Fprintln(stderr, red("unknown command, type :help"))
	}
	return false
}
