// Package world is the in-memory universe the patch engine mutates: star
// systems, space objects (spobs), virtual presence sources, tech groups,
// factions, and live pilots.
//
// Mutation primitives enforce structural preconditions (adding something
// already present, or removing something absent, is an error) so callers can
// record failures instead of silently no-oping. Derived state such as jump
// destinations, faction presence, safe lanes, and pilot navigation is only
// rebuilt by the recompute primitives.
package world
