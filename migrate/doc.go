// Package migrate applies pending migration scripts to a target database.
//
// Every script runs in its own connection and transaction, so it's either
// applied completely or not at all. Scripts are expected to record themselves
// in the ledger table as part of their own statements, which makes that record
// atomic with the script's effects.
package migrate
