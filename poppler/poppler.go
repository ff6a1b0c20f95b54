// Package poppler renders PDF pages to images with the pdftoppm tool.
package poppler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/fwojciec/harvest"
)

// DefaultBin is the executable used when Rasterizer.Bin is empty.
const DefaultBin = "pdftoppm"

// Resolution is the rendering resolution in dots per inch.
const Resolution = 400

var _ harvest.Rasterizer = (*Rasterizer)(nil)

// Rasterizer renders single PDF pages to PNG.
type Rasterizer struct {
	Bin string
}

// RasterizePage renders the 1-based page of the PDF at path and returns the
// PNG bytes written by pdftoppm to standard output.
func (r *Rasterizer) RasterizePage(ctx context.Context, path string, page int) ([]byte, error) {
	if page < 1 {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid page number: %d", page)
	}
	n := strconv.Itoa(page)
	args := []string{
		path,
		"-singlefile",
		"-png",
		"-r", strconv.Itoa(Resolution),
		"-aa", "yes",
		"-aaVector", "yes",
		"-f", n,
		"-l", n,
	}

	bin := r.Bin
	if bin == "" {
		bin = DefaultBin
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, commandError(ctx, bin, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, harvest.Errorf(harvest.EEXTERNAL, "%s produced no output for page %d", bin, page)
	}
	return stdout.Bytes(), nil
}

func commandError(ctx context.Context, bin string, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return harvest.WrapError(harvest.EEXTERNAL, ctxErr, "%s timed out", bin)
		}
		return ctxErr
	}
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return harvest.WrapError(harvest.EEXTERNAL, err, "%s failed: %v", bin, err)
	}
	return harvest.WrapError(harvest.EEXTERNAL, err, "%s failed: %s", bin, msg)
}
