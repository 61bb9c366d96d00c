package world

import (
	"math"
	"sort"
)

// RebuildJumps resolves every jump destination, drops links to systems that
// no longer exist, and restores missing return links.
func (w *World) RebuildJumps() {
	for _, name := range w.systemOrder {
		sys := w.systems[name]
		kept := sys.Jumps[:0]
		for _, j := range sys.Jumps {
			dst, ok := w.systems[j.Target]
			if !ok || j.Target == name {
				continue
			}
			j.dest = dst
			kept = append(kept, j)
		}
		sys.Jumps = kept
	}
	for _, name := range w.systemOrder {
		sys := w.systems[name]
		for _, j := range sys.Jumps {
			if !j.dest.HasJump(name) {
				j.dest.Jumps = append(j.dest.Jumps, Jump{Target: name, dest: sys})
			}
		}
	}
}

// RecomputePresence rebuilds per-system faction presence. A spob contributes
// base plus bonus to its own system and half as much per jump beyond it, up
// to its range. Virtual spobs add their fixed values to the systems holding
// them.
func (w *World) RecomputePresence() {
	for _, sys := range w.systems {
		sys.presence = make(map[string]float64)
	}
	for _, name := range w.systemOrder {
		sys := w.systems[name]
		for _, spobName := range sys.Spobs {
			spob, ok := w.spobs[spobName]
			if !ok || spob.Faction == "" {
				continue
			}
			value := spob.Presence.Base + spob.Presence.Bonus
			for target, distance := range w.within(name, spob.Presence.Range) {
				w.systems[target].presence[spob.Faction] += value * math.Pow(0.5, float64(distance))
			}
		}
		for _, vname := range sys.VirtualSpobs {
			v, ok := w.virtualSpobs[vname]
			if !ok {
				continue
			}
			for _, p := range v.Presences {
				sys.presence[p.Faction] += p.Value
			}
		}
	}
}

// within returns the systems reachable from origin in at most hops jumps,
// mapped to their distance.
func (w *World) within(origin string, hops int) map[string]int {
	dist := map[string]int{origin: 0}
	frontier := []string{origin}
	for d := 1; d <= hops && len(frontier) > 0; d++ {
		var next []string
		for _, name := range frontier {
			for _, j := range w.systems[name].Jumps {
				if _, seen := dist[j.Target]; seen {
					continue
				}
				if _, ok := w.systems[j.Target]; !ok {
					continue
				}
				dist[j.Target] = d
				next = append(next, j.Target)
			}
		}
		frontier = next
	}
	return dist
}

// RecomputeSafeLanes links every pair of same-faction spobs inside a system
// unless the system disables lanes.
func (w *World) RecomputeSafeLanes() {
	for _, sys := range w.systems {
		sys.lanes = nil
		if sys.NoLanes {
			continue
		}
		names := append([]string(nil), sys.Spobs...)
		sort.Strings(names)
		for i, a := range names {
			sa, ok := w.spobs[a]
			if !ok || sa.Faction == "" {
				continue
			}
			for _, b := range names[i+1:] {
				sb, ok := w.spobs[b]
				if !ok || sb.Faction != sa.Faction {
					continue
				}
				sys.lanes = append(sys.lanes, Lane{Faction: sa.Faction, A: a, B: b})
			}
		}
	}
}

// ResetPilotNavigation clears navigation targets that no longer exist in the
// pilot's system and aborts hyperspace jumps along removed links.
func (w *World) ResetPilotNavigation() {
	for _, p := range w.pilots {
		sys, ok := w.systems[p.System]
		if !ok {
			p.NavSpob = ""
			p.NavJump = ""
			if p.Hyperspacing {
				p.Hyperspacing = false
				p.HyperspaceAborted = true
			}
			continue
		}
		if p.NavSpob != "" && !sys.HasSpob(p.NavSpob) {
			p.NavSpob = ""
		}
		if p.NavJump != "" && !sys.HasJump(p.NavJump) {
			p.NavJump = ""
			if p.Hyperspacing {
				p.Hyperspacing = false
				p.HyperspaceAborted = true
			}
		}
	}
}

// ReloadGraphics reloads the graphics of the active system.
func (w *World) ReloadGraphics() {
	w.graphics = nil
	w.graphicsLoads++
	sys, ok := w.systems[w.active]
	if !ok {
		return
	}
	if sys.Background != "" {
		w.graphics = append(w.graphics, sys.Background)
	}
	for _, name := range sys.Spobs {
		if spob, ok := w.spobs[name]; ok && spob.GfxSpace != "" {
			w.graphics = append(w.graphics, spob.GfxSpace)
		}
	}
}
