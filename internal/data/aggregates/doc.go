// Package aggregates implements the counting write boundary on top of the table repos.
//
// Every ledger mutation and the contributor total it implies commit in one transaction;
// Recalculate is the replay path that repairs totals from the ledger alone.
package aggregates
