// Package diff orchestrates named diffs: immutable definitions held in a
// catalog, live instances on an ordered stack, and the apply, remove, clear,
// and load operations that move diffs between the unapplied and applied
// states.
//
// A diff whose hunks partly failed is still applied. Its failed hunks are
// reported once and kept on the instance; only the applied hunks are
// reverted on removal.
package diff
