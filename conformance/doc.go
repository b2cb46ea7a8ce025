// Package conformance is the executable contract of the bridge. It drives
// both sides through every marshaling category and checks the literal values
// that must survive each crossing.
//
// A Session owns one native heap, the managed handle tables, and a
// verification flag. Native holds the c_* test library and Managed the r_*
// callbacks native code makes. Cases come in four groups:
//
//	return      native returns each category; the caller checks the value
//	try_return  fallible calls; the caller checks the value or the message
//	take        native receives each category and raises the flag via Check
//	call_r      native calls back into managed code and reports the first failure
//
// Run executes one session and returns a Report; RunParallel runs several at
// once to show that sessions never share a flag. A session that ends with
// live heap blocks or handles reports them as leaks.
//
// Signatures declares the library's symbols and Bind checks that each one has
// an implementation.
package conformance
