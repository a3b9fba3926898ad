package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's stdin. One reader is shared so buffered
// input is not lost between questions.
type prompter struct {
	out    io.Writer
	reader *bufio.Reader
	// tty reports whether passwords can be read without echo.
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()

	return &prompter{
		out:    cmd.ErrOrStderr(),
		reader: bufio.NewReader(in),
		tty:    in == io.Reader(os.Stdin) && term.IsTerminal(int(syscall.Stdin)),
	}
}

// value returns current when set, otherwise asks for it.
func (p *prompter) value(current, label string) (string, error) {
	if current != "" {
		return current, nil
	}

	fmt.Fprintf(p.out, "Enter %s: ", label)

	line, err := p.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return strings.TrimSpace(line), nil
}

func (p *prompter) password(label string) (string, error) {
	if !p.tty {
		return p.value("", label)
	}

	fmt.Fprintf(p.out, "Enter %s: ", label)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}

	return string(bytePassword), nil
}

// newPassword asks twice and requires both answers to match.
func (p *prompter) newPassword(label string) (string, error) {
	first, err := p.password(label)
	if err != nil {
		return "", err
	}

	second, err := p.password("it again to confirm")
	if err != nil {
		return "", err
	}

	if first != second {
		return "", errPasswordMismatch
	}

	return first, nil
}
