// Package schema is the name-resolution service between logical attributes
// and the physical entity-attribute-value tables of the replica.
//
// Every attribute owns one table keyed by item id. Scalar attributes hold at
// most one row per item; collection attributes hold one row per value.
//
// Catalogs are declared in CUE:
//
//	attribute: {
//		status:   {type: "ref"}
//		summary:  {type: "string"}
//		labels:   {type: "string", collection: true}
//		created:  {type: "date", table: "attr_created_at"}
//	}
//
// A Catalog must stay unchanged for the duration of a compilation; compiled
// plans are invalidated whenever a new catalog is installed.
package schema
