// Package report reads the workbook exported by the warranty portal and
// normalizes it into the table published for a site.
package report
