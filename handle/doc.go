// Package handle maps the integer handles a script holds to references.
//
// A script never sees a *ref.Reference. It sees a Handle, a small integer
// issued by a Table:
//
//	table := handle.NewTable(0)
//	h, err := table.Insert(r, nil)
//
//	// later, on a script call
//	r, err := table.Borrow(h)
//	defer table.Return(h)
//
// Slots are reused after a drop, but every reuse bumps the slot generation,
// so a stale handle from before the drop no longer resolves.
//
// # Ownership
//
// A handle may own a script-side allocation. Dropping such a handle drops
// the allocation, which invalidates every reference derived from it,
// including ones held under other handles.
//
// # Borrows
//
// Borrow marks a handle as in use for the duration of a host call. A
// borrowed handle cannot be dropped; Drop fails with
// errors.KindCannotClaimAccess until every borrow is returned.
//
// # Observers
//
// Observers are told about every insert, drop, borrow and return:
//
//	table.Subscribe(handle.ObserverFunc(func(e handle.Event) {
//	    log.Printf("%s %s", e.Type, e.Handle)
//	}))
package handle
