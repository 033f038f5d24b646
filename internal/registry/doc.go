// Package registry reads the master spreadsheet that lists the tracked sites.
//
// Every worksheet of the registry is one site. Below a two-row header each
// worksheet carries a "Device Name" and a "Serial Number" column; the header
// cells may sit in any column. Devices without a serial are submitted to the
// portal under MissingSN<k> placeholders so their rows can be matched back.
package registry
