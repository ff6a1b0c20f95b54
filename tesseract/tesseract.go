// Package tesseract recognizes text in images with the tesseract command
// line tool.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/fwojciec/harvest"
)

// DefaultBin is the executable used when Engine.Bin is empty.
const DefaultBin = "tesseract"

// PageSegmentation selects automatic page segmentation with orientation
// and script detection.
const PageSegmentation = "1"

var _ harvest.OCREngine = (*Engine)(nil)

// Engine runs tesseract once per image, feeding the image on standard input.
type Engine struct {
	Bin            string
	TessdataPrefix string
}

// Recognize returns the text tesseract finds in image.
func (e *Engine) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	if e.TessdataPrefix == "" {
		return "", harvest.Errorf(harvest.ECONFIG, "TESSDATA_PREFIX is not set, OCR won't work")
	}
	if len(languages) == 0 {
		return "", harvest.Errorf(harvest.EINVALID, "no OCR languages")
	}

	bin := e.Bin
	if bin == "" {
		bin = DefaultBin
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin,
		"stdin", "stdout",
		"-l", strings.Join(languages, "+"),
		"--psm", PageSegmentation,
	)
	cmd.Env = append(os.Environ(), "TESSDATA_PREFIX="+e.TessdataPrefix)
	cmd.Stdin = bytes.NewReader(image)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return "", harvest.WrapError(harvest.EEXTERNAL, ctxErr, "%s timed out", bin)
			}
			return "", ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", harvest.WrapError(harvest.EEXTERNAL, err, "%s failed: %s", bin, msg)
		}
		return "", harvest.WrapError(harvest.EEXTERNAL, err, "%s failed: %v", bin, err)
	}
	return stdout.String(), nil
}
