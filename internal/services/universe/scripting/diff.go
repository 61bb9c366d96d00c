// Package scripting exposes diffs to Lua gameplay scripts and runs the Lua
// save updater that renames diffs between data releases.
package scripting

import (
	"context"
	"fmt"

	"github.com/Shopify/go-lua"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
)

// ModuleName is the global the diff library is registered under.
const ModuleName = "diff"

// Diffs is the diff stack driven by scripts.
type Diffs interface {
	Apply(ctx context.Context, name string) (diff.Result, error)
	Remove(ctx context.Context, name string) error
	IsApplied(name string) bool
}

// Open registers the diff library as a global on l. A read-only library
// only exposes isApplied, for condition scripts that must not mutate the
// universe.
func Open(ctx context.Context, l *lua.State, diffs Diffs, readonly bool) {
	isApplied := lua.RegistryFunction{Name: "isApplied", Function: func(l *lua.State) int {
		l.PushBoolean(diffs.IsApplied(lua.CheckString(l, 1)))
		return 1
	}}
	functions := []lua.RegistryFunction{isApplied}
	if !readonly {
		functions = append(functions,
			lua.RegistryFunction{Name: "apply", Function: func(l *lua.State) int {
				// Failures are already reported by the diff context.
				_, _ = diffs.Apply(ctx, lua.CheckString(l, 1))
				return 0
			}},
			lua.RegistryFunction{Name: "remove", Function: func(l *lua.State) int {
				err := diffs.Remove(ctx, lua.CheckString(l, 1))
				if err != nil && !apperrors.HasCode(err, apperrors.CodeDiffNotApplied) {
					lua.Errorf(l, "%s", err.Error())
				}
				return 0
			}},
		)
	}
	lua.NewLibrary(l, functions)
	l.SetGlobal(ModuleName)
}

// NewState returns a state with the standard libraries and the diff library.
func NewState(ctx context.Context, diffs Diffs, readonly bool) *lua.State {
	l := lua.NewState()
	lua.OpenLibraries(l)
	Open(ctx, l, diffs, readonly)
	return l
}

// RunFile runs the script at path with full diff access.
func RunFile(ctx context.Context, diffs Diffs, path string) error {
	l := NewState(ctx, diffs, false)
	if err := lua.DoFile(l, path); err != nil {
		return fmt.Errorf("run script %s: %w", path, err)
	}
	return nil
}

// RunString runs source with the given access level.
func RunString(ctx context.Context, diffs Diffs, source string, readonly bool) error {
	l := NewState(ctx, diffs, readonly)
	if err := lua.DoString(l, source); err != nil {
		return fmt.Errorf("run script: %w", err)
	}
	return nil
}
