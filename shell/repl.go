package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

const prompt = "chunkdb> "

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chunkdb_history")
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("create_table"),
		readline.PcItem("insert_into"),
		readline.PcItem("select"),
		readline.PcItem("explain", readline.PcItem("select")),
		readline.PcItem("tables"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// REPL reads statements from the console until exit or EOF. A failing
// statement prints its error and the loop goes on.
func (self *Shell) REPL() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(self.Out, "chunkdb, type help for the statements, exit to leave")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := self.Exec(line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintf(self.Out, "error: %s\n", err)
		}
	}
}

// Script runs one statement per line from r. Lines starting with '#' are
// comments. The first failing statement stops the script unless keepGoing
// is set, in which case the number of failures is reported at the end.
func (self *Shell) Script(r io.Reader, keepGoing bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	failed := 0
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := self.Exec(line)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrExit) {
			return nil
		}
		if !keepGoing {
			return fmt.Errorf("line %d: %w", lineno, err)
		}
		failed++
		fmt.Fprintf(self.Out, "error(line %d): %s\n", lineno, err)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d statement(s) failed", failed)
	}
	return nil
}
