package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner starts an external helper program. Tests replace it.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ExecRunner runs the command and waits for it to exit
func ExecRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// shellSpecial are the characters that make a word need quoting
const shellSpecial = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// shellQuote renders s as a single POSIX shell word, for logs only
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecial) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// CommandLine renders a command for logging so it can be pasted into a shell
func CommandLine(name string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, shellQuote(name))
	for _, arg := range args {
		words = append(words, shellQuote(arg))
	}
	return strings.Join(words, " ")
}
