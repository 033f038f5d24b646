// Package publish writes normalized warranty tables to the destination
// spreadsheet.
package publish
