// Package liveness tracks whether script-owned values are still alive.
//
// A Token is a strong, reference-counted handle on a value. Weak handles
// observe the same value without keeping it alive; Upgrade fails once the
// last strong token has been dropped, which is how a reference detects that
// the script side already collected the value it points into.
//
// Each value also carries its own access.Lock, so concurrent shared and
// exclusive claims on one script-owned value follow the same non-blocking
// discipline as components and resources in a world.
//
// The Allocator owns the strong tokens handed out for script allocations and
// issues their ids from its own counter.
package liveness
