// Package ref implements reflective references: handles that name a root
// value plus a path into it, and re-derive the target on every access.
//
// A root is one of:
//
//	ComponentBase   a component on an entity of a world
//	ResourceBase    a world resource
//	AllocationBase  a value owned by the script side
//	StackBase       a caller-owned value with no tracking at all
//
// Every Read and Write first revalidates the root, claims it (shared or
// exclusive, never blocking), walks the path and only then calls the
// supplied function. A conflicting claim is reported as
// errors.KindCannotClaimAccess. A root that went away is reported as
// errors.KindInvalidBaseReference, errors.KindMissingWorld or
// errors.KindGarbageCollectedAllocation depending on its kind.
//
// A Reference caches the last derived target, but the cache is only trusted
// inside the claim it was derived under. Hold opens a shared claim that can
// serve several reads without re-walking the path.
//
// StackBase skips every check. The caller guarantees the pointee outlives the
// reference and is not aliased while a Write runs.
package ref
