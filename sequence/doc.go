// Package sequence allocates the numbers that new migration scripts are named
// with. Numbers come from one of three sources: the local clock, a remote
// number service, or a shared counter store updated with optimistic
// concurrency.
package sequence
