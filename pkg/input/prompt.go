package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Sternrassler/reconcheck/pkg/endpoint"
)

// ErrExit is returned when the user asks to quit at a prompt.
var ErrExit = errors.New("exit requested")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints question and returns the trimmed answer. A final line without
// a newline is still returned; io.EOF is only returned when nothing was read.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ChooseKind asks for an endpoint kind until a valid one or "exit" is entered.
func (p *Prompter) ChooseKind(kinds []endpoint.Kind) (endpoint.Kind, error) {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	question := fmt.Sprintf("Please enter Service (%s) or 'exit' to quit: ", strings.Join(names, "/"))

	for {
		answer, err := p.Ask(question)
		if err != nil {
			return endpoint.KindUnknown, err
		}
		if strings.EqualFold(answer, "exit") {
			return endpoint.KindUnknown, ErrExit
		}

		kind, err := endpoint.ParseKind(answer)
		if err == nil && slices.Contains(kinds, kind) {
			return kind, nil
		}
		fmt.Fprintf(p.out, "Invalid service %q. Please try again.\n", answer)
	}
}

// ChooseInput lists the asset files in dir matching exts and asks for one.
// An empty answer selects defaultPath.
func (p *Prompter) ChooseInput(dir, defaultPath string, exts ...string) (string, error) {
	files, err := ListAssets(dir, exts...)
	if err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "Available files in %s directory:\n", dir)
	for _, name := range files {
		fmt.Fprintf(p.out, "  - %s\n", name)
	}
	if len(files) == 0 {
		fmt.Fprintf(p.out, "  - No files with extensions %s found!\n", strings.Join(exts, ", "))
	}

	answer, err := p.Ask(fmt.Sprintf("Enter the filename (default: %s): ", defaultPath))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return defaultPath, nil
	}
	return ResolveAssetPath(dir, answer), nil
}
