package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPrompt = "$ "
	// maxLineLength bounds one input line, newline included. Longer lines
	// are discarded and reported as an invalid command.
	maxLineLength = 64 * 1024
)

// Shell reads one command per line and writes results to its output. A
// command is fully executed and written before the next line is read.
type Shell struct {
	session *Session
	reader  *bufio.Reader
	out     io.Writer
	prompt  string
}

type ShellOption func(*Shell)

func WithInput(r io.Reader) ShellOption {
	return func(s *Shell) {
		s.reader = bufio.NewReader(r)
	}
}

func WithOutput(w io.Writer) ShellOption {
	return func(s *Shell) {
		s.out = w
	}
}

// WithPrompt sets the text written before each read. Empty disables it.
func WithPrompt(prompt string) ShellOption {
	return func(s *Shell) {
		s.prompt = prompt
	}
}

func NewShell(session *Session, opts ...ShellOption) *Shell {
	s := &Shell{
		session: session,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		prompt:  defaultPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes input until exit, end of input or ctx cancellation. It
// returns nil for exit and end of input.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.session.Telemetry().Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")
	defer span.AddEvent("shell_ended")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.prompt != "" {
			fmt.Fprint(s.out, s.prompt)
		}

		line, tooLong, err := s.readLine()
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			span.RecordError(err)
			return fmt.Errorf("reading input: %w", err)
		}

		if tooLong {
			s.invalid(ctx, "", "line too long")
		} else if s.processLine(ctx, line) {
			return nil
		}

		if atEOF {
			return nil
		}
	}
}

// processLine runs one input line and reports whether the session should
// end. Blank lines are skipped.
func (s *Shell) processLine(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	// Create a new span for each command
	cmdCtx, cmdSpan := s.session.Telemetry().Tracer().Start(ctx, "shell.process_command",
		trace.WithAttributes(attribute.String("command.input", strings.TrimRight(line, "\r\n"))))
	defer cmdSpan.End()

	return s.execute(cmdCtx, fields)
}

// readLine returns the next line including its newline. A line longer than
// maxLineLength is consumed and dropped, and tooLong is set.
func (s *Shell) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > maxLineLength {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), tooLong, err
	}
}

func (s *Shell) println(args ...any) {
	fmt.Fprintln(s.out, args...)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
