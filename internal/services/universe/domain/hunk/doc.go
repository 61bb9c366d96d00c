// Package hunk defines the atomic change record applied to the universe and
// the static registry describing every hunk type.
//
// A hunk names its target entity, its type, a typed payload, and optional
// attributes used to address anonymous sub-elements such as labeled asteroid
// fields. The Old slot is scratch space that only carries meaning between an
// apply and the matching revert.
//
// The registry is a declarative table: each entry names the authoring tag,
// the payload kind, the reverse type that undoes it, and the attribute keys it
// accepts. Revert-only types carry no tag and are never authored directly.
package hunk
