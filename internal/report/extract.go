package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"glucoreport/pkg/contracts/domain"
)

const (
	summaryOpen  = `<script type="application/json" id="report-summary">`
	summaryClose = `</script>`
)

var ErrSummaryNotFound = errors.New("embedded summary not found")

// ExtractSummary recovers the summary embedded in a rendered report.
func ExtractSummary(doc []byte) (domain.Summary, error) {
	var s domain.Summary

	start := bytes.Index(doc, []byte(summaryOpen))
	if start < 0 {
		return s, ErrSummaryNotFound
	}
	body := doc[start+len(summaryOpen):]
	end := bytes.Index(body, []byte(summaryClose))
	if end < 0 {
		return s, ErrSummaryNotFound
	}

	if err := json.Unmarshal(bytes.TrimSpace(body[:end]), &s); err != nil {
		return s, fmt.Errorf("decode embedded summary: %w", err)
	}
	return s, nil
}
