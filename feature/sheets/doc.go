// Package sheets reads and writes Google Sheets tabs through the
// spreadsheets.values REST endpoints. A Tab adapts one tab to the engine's
// RecordStore with row one as the header and sheet row numbers as record
// ids. The AuditLogger mirrors run results into detail and summary tabs on
// the same spreadsheet.
package sheets
