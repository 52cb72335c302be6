package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// ParagraphReader reads multi-line descriptions from an interactive stream.
// A description ends at a blank line or at EOF.
type ParagraphReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewParagraphReader creates a new paragraph reader.
func NewParagraphReader(reader io.Reader) *ParagraphReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &ParagraphReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads one line, respecting context cancellation.
func (r *ParagraphReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	// The reading goroutine keeps running after cancellation until the
	// underlying read returns.
	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimRight(res.value, "\r\n"), nil
	}
}

// ReadParagraph reads lines until a blank line or EOF and joins them.
// Leading blank lines are skipped. io.EOF is returned only when nothing was read.
func (r *ParagraphReader) ReadParagraph(ctx context.Context) (string, error) {
	var lines []string
	for {
		line, err := r.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == "" {
			if len(lines) == 0 {
				continue
			}
			break
		}
		lines = append(lines, strings.TrimSpace(line))
	}

	if len(lines) == 0 {
		return "", io.EOF
	}
	return strings.Join(lines, "\n"), nil
}
