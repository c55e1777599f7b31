// Package aggregates defines the write boundary of the counting ledger and the error
// codes its implementations return. It says nothing about how rows are stored.
package aggregates
