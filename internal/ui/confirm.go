package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
)

// Confirm prompts with a yes/no question on out and reads the answer from
// in. Anything but y/yes is a no.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleWarning.Render(prompt))
	return readYes(bufio.NewReader(in))
}

// ConfirmDanger is like Confirm but styled with the error color.
func ConfirmDanger(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleError.Render("⚠ "+prompt))
	return readYes(bufio.NewReader(in))
}

func readYes(r *bufio.Reader) bool {
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// TerminalApprover returns a wallet approver that asks on the terminal for
// every prompt. A cancelled context counts as a rejection.
func TerminalApprover(in io.Reader, out io.Writer) provider.Approver {
	var mu sync.Mutex
	reader := bufio.NewReader(in)
	return func(ctx context.Context, p provider.Prompt) bool {
		if ctx.Err() != nil {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s\n  %s [y/N]: ", StyleWarning.Render("wallet: "+p.Method), p.Summary)
		return readYes(reader)
	}
}
