// Package heap provides the handle table that stands in for host references
// inside guest linear memory.
//
// The guest never sees a host value directly. It holds small integer
// handles into a Table owned by the instance:
//
//	table := heap.NewTable()
//
//	// Box a value, hand the index to the guest
//	h := table.Alloc(elem)
//
//	// Borrow it back on the next call
//	v := table.Get(h)
//
//	// Release when the guest drops its reference
//	table.Free(h)
//
// # Reserved Slots
//
// Slots 0 through 3 permanently hold undefined, null, true and false.
// Allocating one of those values returns its reserved slot, and freeing a
// reserved slot is a no-op, so the guest may treat them like any other
// owned handle.
//
// # Free List
//
// Freed slots form a singly linked list threaded through the table: a free
// slot stores the index of the next free slot. Alloc pops the head, or grows
// the table when the list is empty.
//
// # Contract Violations
//
// Handles come from the guest and are trusted. A stale or out-of-range
// handle is a broken contract, not a recoverable condition: Get and Free
// panic with a KindContractViolation error, which the host call layer turns
// into a trap of the current guest call.
package heap
