package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// terminalConfirmer reads a yes/no answer from the operator
type terminalConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{reader: bufio.NewReader(in), out: out}
}

// Confirm asks once. Unlike a wizard prompt there is no retry: anything that
// is not an explicit yes, including an empty line, declines. Input that ends
// before a line is read is an error, not an answer.
func (c *terminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprint(c.out, prompt)
	input, err := c.reader.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && input == "":
		fmt.Fprintln(c.out)
		return false, fmt.Errorf("no answer received, input closed: %w", err)
	case errors.Is(err, io.EOF):
		// a final line without a newline is still an answer
		fmt.Fprintln(c.out)
	case err != nil:
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	return isAffirmative(input), nil
}

// isAffirmative accepts "yes" and "y" in any case. Only the line terminator is
// stripped, so " yes" declines.
func isAffirmative(input string) bool {
	lower := strings.ToLower(strings.TrimRight(input, "\r\n"))
	return lower == "y" || lower == "yes"
}
