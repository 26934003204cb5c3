// Package syncreg tracks which region of the item space is known to be
// fully synchronized with the remote tracker.
//
// The coverage registry is a cube.Set persisted alongside the replica. A
// registry value belongs to the transaction that loaded it: load it, read
// or mutate it, save it, then drop it. View and Update wrap that cycle:
//
//	err := syncreg.Update(ctx, tx, catalog, syncreg.UUIDv7Generator{}, func(r *syncreg.Registry) error {
//		r.SetSynced(fetched)
//		return nil
//	})
//
// Loading never yields a partially populated registry. Corrupt persisted
// state loads as an empty registry together with a *LoadError, so nothing
// is claimed as synced.
package syncreg
