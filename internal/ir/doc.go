// Package ir provides the value model shared by the replica's query layers.
//
// This package contains value types and their canonical encoding only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - numbers, dates and item references are int64
//   - Scalars of different kinds never compare equal (IRInt(1) != IRString("1"))
//   - Structural keys use RFC 8785 canonical JSON so equal predicates hash equally
package ir
