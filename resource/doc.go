// Package resource provides the handle tables behind opaque managed values.
//
// Native code never holds a pointer into the Go heap. A managed value that
// crosses the bridge (a box, a managed string) is parked in a Table and the
// native side receives a Handle, an integer it can store, pass back, and
// hand over, but never dereference.
//
// # Lifecycle
//
//	borrow - Get or Borrow; the handle stays valid
//	take   - Take moves the value out to a new owner, the handle dies
//	drop   - Drop destroys the value (Dropper.Drop), the handle dies
//
// A value with outstanding borrows can be neither taken nor dropped.
//
// # Handles
//
// Handles carry a slot generation, so a handle whose value has left the table
// keeps failing lookups with ErrStaleHandle even after the slot is reused:
//
//	table := resource.NewTable()
//	h := table.Insert(resource.KindBox, 2020)
//	v, _ := table.Take(h, resource.KindBox)
//	_, err := table.Lookup(h, resource.KindBox) // ErrStaleHandle
//
// Each value is stored with a Kind and lookups check it, so a box handle
// cannot be read as a managed string. Typed narrows a table to one kind and
// one Go type.
//
// # Observers
//
// Observers receive every lifecycle event synchronously, in the goroutine
// that caused it:
//
//	type counter struct{ created int }
//
//	func (c *counter) OnResourceEvent(e resource.Event) {
//	    if e.Type == resource.EventCreated {
//	        c.created++
//	    }
//	}
//
//	table.Subscribe(&counter{})
//
// Values still in a table when it is closed are dropped.
package resource
