// Package access implements the claim discipline that guards every root a
// reference can point into.
//
// A root is identified by a RootID. Any number of shared claims, or exactly
// one exclusive claim, may be held on a root at a time:
//
//	ledger := access.NewLedger()
//
//	c, err := ledger.ClaimExclusive(id)
//	if err != nil {
//	    // errors.KindCannotClaimAccess: someone else holds the root
//	}
//	defer c.Release()
//
// Claims never block. A conflicting claim fails immediately so a script turn
// cannot deadlock against itself.
//
// Lock is the same discipline for a single root without a ledger map. It is
// embedded by liveness tokens that guard one script-owned value each.
package access
