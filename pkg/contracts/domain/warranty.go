package domain

import (
	"fmt"
)

// Canonical column names shared by the normalizer and the sheet writer
const (
	ColumnDeviceName     = "Device Name"
	ColumnSerialNumber   = "Serial Number"
	ColumnSerialNo       = "Serial No."
	ColumnStartDate      = "Start Date"
	ColumnEndDate        = "End Date"
	ColumnWarrantyExpiry = "Warranty Expiry Date"

	// MissingSerialMarker replaces placeholder serials in published rows
	MissingSerialMarker = "Missing S/N"
	// PlaceholderPrefix prefixes the synthesized serial of a device without one
	PlaceholderPrefix = "MissingSN"
	// NotAvailable fills every empty canonical cell
	NotAvailable = "N/A"
)

// Site is one tracked location; its title names both the registry
// worksheet and the destination worksheet.
type Site struct {
	Title string `json:"title" validate:"required"`
}

// Device is one registry row. Serial may be blank.
type Device struct {
	Name   string `json:"name"`
	Serial string `json:"serial"`
}

// BatchEntry is a device as submitted to the portal
type BatchEntry struct {
	DeviceName  string `json:"device_name"`
	Serial      string `json:"serial"`
	Placeholder bool   `json:"placeholder"`
}

// SerialBatch is the ordered list of serials submitted for one site in one run.
// Every Serial is non-empty.
type SerialBatch struct {
	Site    Site         `json:"site"`
	Entries []BatchEntry `json:"entries"`
}

// PlaceholderSerial returns the synthesized serial for the k-th blank (1-based)
func PlaceholderSerial(k int) string {
	return fmt.Sprintf("%s%d", PlaceholderPrefix, k)
}

// Len returns the number of submitted serials
func (b SerialBatch) Len() int {
	return len(b.Entries)
}

// Serials returns the serials in submission order
func (b SerialBatch) Serials() []string {
	serials := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		serials[i] = e.Serial
	}
	return serials
}

// DeviceNames maps each serial to the device that first carried it.
// Later devices sharing a serial lose to the first one, mirroring the
// first-wins de-duplication of the export rows.
func (b SerialBatch) DeviceNames() map[string]string {
	names := make(map[string]string, len(b.Entries))
	for _, e := range b.Entries {
		if _, seen := names[e.Serial]; !seen {
			names[e.Serial] = e.DeviceName
		}
	}
	return names
}

// Shadowed returns the entries whose serial was already used by an
// earlier entry. Their rows never reach the destination sheet.
func (b SerialBatch) Shadowed() []BatchEntry {
	seen := make(map[string]struct{}, len(b.Entries))
	var shadowed []BatchEntry
	for _, e := range b.Entries {
		if _, ok := seen[e.Serial]; ok {
			shadowed = append(shadowed, e)
			continue
		}
		seen[e.Serial] = struct{}{}
	}
	return shadowed
}

// Placeholders counts synthesized serials
func (b SerialBatch) Placeholders() int {
	n := 0
	for _, e := range b.Entries {
		if e.Placeholder {
			n++
		}
	}
	return n
}

// RawReport is the ReportData sheet of one downloaded export
type RawReport struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// CanonicalTable is the normalized record set for one site
type CanonicalTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Width returns the number of columns
func (t *CanonicalTable) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Header)
}

// Column returns the index of the named column or -1
func (t *CanonicalTable) Column(name string) int {
	if t == nil {
		return -1
	}
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}
