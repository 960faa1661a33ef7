package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads prompt answers without blocking past context cancellation.
type LineReader struct {
	source io.Reader
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewLineReader creates a reader that echoes prompts to w.
func NewLineReader(r io.Reader, w io.Writer) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	if w == nil {
		w = io.Discard
	}
	return &LineReader{
		source: r,
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// ReadLine reads one trimmed line. A read still in flight when ctx ends
// keeps running in the background and its line is lost.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		// A final line without a newline still counts.
		if res.err == io.EOF && res.value != "" {
			return strings.TrimSpace(res.value), nil
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Prompt shows label and reads the answer, falling back to def when blank.
func (r *LineReader) Prompt(ctx context.Context, label, def string) (string, error) {
	shown := label
	if def != "" {
		shown = fmt.Sprintf("%s [%s]", label, def)
	}
	if _, err := fmt.Fprint(r.writer, FormatPrompt(shown)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := r.ReadLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Require prompts until a non-blank answer is given.
func (r *LineReader) Require(ctx context.Context, label string) (string, error) {
	for {
		answer, err := r.Prompt(ctx, label, "")
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		if _, err := fmt.Fprintln(r.writer, FormatWarning(label+" is required")); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
	}
}
