// Package sheets is the Google Sheets client used to read the site registry
// and to write normalized warranty tables to the destination spreadsheet.
package sheets
