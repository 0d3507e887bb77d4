//go:build !ucoll_unchecked

package safety

// Enabled is true when contract checks are compiled in.
const Enabled = true
