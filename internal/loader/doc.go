// Package loader reads glucose session exports into a domain.Dataset.
//
// Every input path is expanded (directories contribute their tabular files
// sorted by name) and parsed independently. A file that cannot be parsed is
// reported as a Warning and skipped; only when no file parses at all does
// Load fail, with an error matching errors.ErrNoValidData.
//
// Supported inputs are comma, semicolon or tab delimited text (delimiter
// detected from the header line, optional UTF-8 BOM) and .xlsx workbooks,
// of which the first sheet is read. Headers are matched by name, ignoring
// case, accents and whitespace, in Spanish or English.
package loader
