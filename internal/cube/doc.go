// Package cube implements the coverage algebra: axis-aligned regions of
// attribute-value space ("cubes") and unions of them.
//
// A Cube maps attribute ids to AxisTerms. A term either includes a set of
// values or excludes one; an attribute without a term is unconstrained.
// Cubes are immutable. Every operation returns a new cube.
//
// Cubes print in a compact notation that Parse reads back:
//
//	cube(status+1,2; priority-5)
//
// which is the region where status is 1 or 2 and priority is anything but 5.
// The zero Cube is the unconstrained region and prints as cube().
package cube
