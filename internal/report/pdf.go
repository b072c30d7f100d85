package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	apperrors "glucoreport/internal/errors"
)

const DefaultPDFTimeout = 30 * time.Second

// PDFPrinter prints written reports to PDF through headless Chrome.
type PDFPrinter struct {
	timeout  time.Duration
	execPath string
	logger   *slog.Logger
}

// PDFOption configures a PDFPrinter.
type PDFOption func(*PDFPrinter)

// WithExecPath selects the Chrome binary instead of searching PATH.
func WithExecPath(path string) PDFOption {
	return func(p *PDFPrinter) { p.execPath = path }
}

// NewPDFPrinter creates a printer. A zero timeout uses DefaultPDFTimeout.
func NewPDFPrinter(timeout time.Duration, logger *slog.Logger, opts ...PDFOption) *PDFPrinter {
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &PDFPrinter{
		timeout: timeout,
		logger:  logger.With(slog.String("component", "pdf")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PDFPath returns the PDF file name written next to an HTML report.
func PDFPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".pdf"
}

// Print renders the report at htmlPath to a PDF next to it and returns the
// PDF path.
func (p *PDFPrinter) Print(ctx context.Context, htmlPath string) (string, error) {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return "", apperrors.NewRenderingError("pdf", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", apperrors.NewRenderingError("pdf", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
	)
	if p.execPath != "" {
		opts = append(opts, chromedp.ExecPath(p.execPath))
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(fileURL(abs)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		p.logger.WarnContext(ctx, "pdf rendering failed",
			slog.String("report", abs),
			slog.String("error", err.Error()))
		return "", apperrors.NewRenderingError("pdf", err)
	}

	out := PDFPath(abs)
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return "", apperrors.NewPersistenceError(fmt.Sprintf("write %s", out), err)
	}
	p.logger.InfoContext(ctx, "pdf written",
		slog.String("path", out),
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func fileURL(abs string) string {
	path := filepath.ToSlash(abs)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}
