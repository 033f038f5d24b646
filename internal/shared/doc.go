// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides log capture for asserting on slog output
// and fixture builders for registry sheets and ReportData workbooks. It is
// imported from _test.go files only.
package shared
