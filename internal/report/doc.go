// Package report composes the HTML session report and persists it.
//
// A report is a single self-contained HTML document: styles are inline and
// charts are embedded as data URIs. The aggregate summary is also embedded
// as JSON so it can be recovered from the file with ExtractSummary.
//
// Documents are written by a Store, which tries a primary directory and then
// a fallback directory. A PDFPrinter can print a written document to PDF with
// headless Chrome.
package report
