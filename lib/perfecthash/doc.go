// Package perfecthash builds collision free lookup tables for fixed key sets.
//
// New searches the smallest power-of-two size for which hash(key) & (size-1) is injective over
// the keys. A lookup then reads exactly one slot. Changing the key set means building a new
// Map. Empty slots hold a caller supplied null value, which must differ from every real value.
//
// The default hasher mixes its input, which spreads arbitrary keys but needs tables of roughly
// the squared key count. Dense integer keys build much smaller tables with
// hashtable.IdentityHasher.
package perfecthash
