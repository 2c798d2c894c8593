// Package world is the host store references point into.
//
// A World holds entities, their components and global resources. Component
// and resource types are registered once and addressed through accessors,
// which are the capability a reference keeps to re-derive its root:
//
//	w := world.New()
//	transforms := world.RegisterComponent[Transform](w)
//
//	e := w.Spawn()
//	world.Insert(w, e, Transform{})
//
// # Locking
//
// Structural changes (spawning, despawning, inserting and removing
// components or resources) take the world lock exclusively and block.
// Script-side accesses go through Begin, which takes the world lock shared
// without blocking and then claims the root on the world's ledger. An access
// that cannot get either fails immediately with errors.KindCannotClaimAccess.
//
// # Change tracking
//
// Every exclusive access that dereferences a root marks it changed once.
// Changes returns the per-root counter.
package world
