// Package pdf prints rendered HTML documents to PDF files through a
// headless Chrome instance.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 paper in inches, with a uniform margin.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
	marginInches      = 0.4
)

const (
	defaultSettleDelay = time.Second
	defaultTimeout     = 2 * time.Minute
)

// Converter prints HTML files to PDF. Every conversion launches its own
// browser process, so a wedged renderer cannot poison later conversions
// running in the same process.
type Converter struct {
	settleDelay time.Duration
	timeout     time.Duration
	log         *slog.Logger
}

// NewConverter returns a Converter. A zero settleDelay or timeout falls
// back to the package default.
func NewConverter(settleDelay, timeout time.Duration, log *slog.Logger) *Converter {
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Converter{
		settleDelay: settleDelay,
		timeout:     timeout,
		log:         log.With("component", "pdf_converter"),
	}
}

// Convert renders the HTML file at htmlPath and writes the resulting PDF
// to pdfPath. The page gets settleDelay to finish loading remote images
// before printing, and the whole conversion is bounded by the configured
// timeout.
func (c *Converter) Convert(ctx context.Context, htmlPath, pdfPath string) error {
	if _, err := os.Stat(htmlPath); err != nil {
		return fmt.Errorf("stat input document: %w", err)
	}
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolve input document path: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdfData []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.Sleep(c.settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthInches).
				WithPaperHeight(paperHeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfData = data
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("print %s: %w", filepath.Base(htmlPath), err)
	}

	if err := os.WriteFile(pdfPath, pdfData, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	c.log.DebugContext(ctx, "converted document",
		"input", htmlPath,
		"output", pdfPath,
		"bytes", len(pdfData),
		"duration", time.Since(start))
	return nil
}

func allocatorOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
}
