package scripting

import (
	"context"
	"fmt"

	"github.com/Shopify/go-lua"
)

// Updater renames diffs found in old saves. It is built from a Lua chunk
// that returns a table keyed by the old name; a string value is the new
// name and false drops the diff.
//
//	return {
//	   ["Old Gate"] = "open_gate",
//	   ["Retired Event"] = false,
//	}
type Updater struct {
	renames map[string]string
}

// LoadUpdater runs the updater script at path.
func LoadUpdater(path string) (*Updater, error) {
	return loadUpdater(path, func(l *lua.State) error { return lua.LoadFile(l, path, "") })
}

// ParseUpdater runs an updater chunk held in memory.
func ParseUpdater(source string) (*Updater, error) {
	return loadUpdater("updater", func(l *lua.State) error { return lua.LoadString(l, source) })
}

func loadUpdater(name string, load func(*lua.State) error) (*Updater, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := load(l); err != nil {
		return nil, fmt.Errorf("load updater %s: %w", name, err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run updater %s: %w", name, err)
	}
	if l.TypeOf(-1) != lua.TypeTable {
		return nil, fmt.Errorf("updater %s must return a table, got %s", name, lua.TypeNameOf(l, -1))
	}

	u := &Updater{renames: make(map[string]string)}
	l.PushNil()
	for l.Next(-2) {
		if l.TypeOf(-2) != lua.TypeString {
			return nil, fmt.Errorf("updater %s: keys must be strings, got %s", name, lua.TypeNameOf(l, -2))
		}
		key, _ := l.ToString(-2)
		switch l.TypeOf(-1) {
		case lua.TypeString:
			value, _ := l.ToString(-1)
			u.renames[key] = value
		case lua.TypeBoolean:
			if l.ToBoolean(-1) {
				return nil, fmt.Errorf("updater %s: %q must map to a name or false", name, key)
			}
			u.renames[key] = ""
		default:
			return nil, fmt.Errorf("updater %s: %q must map to a name or false, got %s", name, key, lua.TypeNameOf(l, -1))
		}
		l.Pop(1)
	}
	l.Pop(1)
	return u, nil
}

// Update implements the diff save updater. A dropped diff yields an empty
// replacement.
func (u *Updater) Update(_ context.Context, name string) (string, bool, error) {
	if u == nil {
		return "", false, nil
	}
	replacement, ok := u.renames[name]
	return replacement, ok, nil
}

// Len returns the number of entries.
func (u *Updater) Len() int {
	if u == nil {
		return 0
	}
	return len(u.renames)
}
