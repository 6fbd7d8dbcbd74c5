package oxipng

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const (
	defaultBinary = "oxipng"

	// maxOutput caps how much of the tool's stdout/stderr is kept for error reports.
	maxOutput = 4 << 10
)

// Optimizer runs the oxipng binary with a fixed lossless profile.
type Optimizer struct {
	binary string
}

func New(binary string) *Optimizer {
	if binary == "" {
		binary = defaultBinary
	}
	return &Optimizer{binary: binary}
}

// Args returns the command line for one run: optimization level 4, all
// metadata chunks stripped, output written to out.
func Args(in, out string) []string {
	return []string{"-o", "4", "--strip", "all", "--out", out, in}
}

// Compress optimizes the PNG at in and writes the result to out. The process
// is killed when ctx is done.
func (o *Optimizer) Compress(ctx context.Context, in, out string) error {
	var output limitedBuffer
	output.limit = maxOutput

	cmd := exec.CommandContext(ctx, o.binary, Args(in, out)...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return &Error{Err: err, Output: output.String()}
	}

	return nil
}

// Error is a failed oxipng run.
type Error struct {
	Err    error
	Output string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oxipng: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ToolOutput returns what the process printed, truncated.
func (e *Error) ToolOutput() string {
	return e.Output
}

type limitedBuffer struct {
	bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.Len(); room > 0 {
		if len(p) > room {
			b.Buffer.Write(p[:room])
		} else {
			b.Buffer.Write(p)
		}
	}
	return len(p), nil
}
