// Package marshal defines how values cross the bridge.
//
// Every bridged value belongs to one Category, and ContractOf says how that
// category is passed as an argument and how it comes back from a call:
//
//	scalar          by value          returned by value
//	struct          by value          returned by value
//	str             borrowed          not returnable
//	native_string   consumed          newly owned
//	managed_string  borrow or consume newly owned
//	box             consumed          newly owned
//	unique          borrow or consume newly owned
//	sequence        borrow or consume newly owned, wrapped in a Unique
//
// Signature and Type describe bridged functions; Validate rejects any
// declaration the contract forbids and Header renders the native prototypes.
//
// The carrier types implement the categories at run time. Str borrows native
// UTF-8, NativeString owns it, ManagedStrings and Boxes park Go values behind
// handles, and Unique owns a native object with a destructor.
//
// Fallible calls return a Result. Try runs a callee at the boundary and
// turns a returned error, a thrown Exception or a panic with an error value
// into a failed Result that carries only the message. Contract violations
// are never converted: they keep unwinding.
package marshal
