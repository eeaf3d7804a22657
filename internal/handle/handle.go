/*
 * MIT License
 *
 * Copyright (c) 2026 wampcc contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package handle implements the weak, non-owning session reference the
// specification calls a "session handle" (§3): a value usable as a map
// key by the RPC and Pub/Sub registries, whose equality is defined by
// identity rather than contents, and which compares unequal to a live
// handle once the session it named has closed.
//
// The C++ original carries this as a raw pointer threaded through
// void* fields (see §9, "Handle-to-object dispatch"). In Go that raw
// pointer is replaced with a generation-tagged slot index: a Handle is
// just {slot, generation}, cheap to copy and to use as a map key, and
// a lookup against a freed or reused slot whose generation no longer
// matches reports "not found" instead of returning stale or
// use-after-free data.
package handle

import "sync"

// Handle is a weak, non-owning reference to a value registered in a
// Table. The zero Handle is never valid and is returned by Table.Add
// never.
type Handle struct {
	slot uint32
	gen  uint32
}

// Valid reports whether h could plausibly name a live entry; it is
// false only for the zero Handle, which Add never returns.
func (h Handle) Valid() bool {
	return h.gen != 0
}

type slot struct {
	gen uint32
	val any
	set bool
}

// Table is a generation-tagged slot table mapping Handle to any value.
// It is the registries' building block for "a weak reference usable as
// a map key, where Expired handles compare unequal to live ones" (§3).
// All methods are safe for concurrent use.
type Table struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
}

// New creates an empty Table.
func New() *Table {
	return &Table{}
}

// Add inserts val and returns a fresh Handle naming it. Handles are
// never reused while they remain live: removing an entry and adding a
// new one may reuse the same slot index, but the generation is bumped
// so that any Handle copy obtained before the removal will not
// resolve to the new occupant.
func (t *Table) Add(val any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.slots[idx].val = val
		t.slots[idx].set = true
		return Handle{slot: idx, gen: t.slots[idx].gen}
	}

	t.slots = append(t.slots, slot{gen: 1, val: val, set: true})
	return Handle{slot: uint32(len(t.slots) - 1), gen: 1}
}

// Get returns the value named by h and true, or the zero value and
// false if h is expired or unknown.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(h.slot) >= len(t.slots) {
		return nil, false
	}
	s := t.slots[h.slot]
	if !s.set || s.gen != h.gen {
		return nil, false
	}
	return s.val, true
}

// Remove deletes the entry named by h, if it is still live. Removing an
// already-expired or unknown handle is a no-op. The slot's generation
// is bumped so that h itself (and any other copy of it) becomes
// permanently expired, per §3: "Expired handles compare unequal to
// live ones".
func (t *Table) Remove(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(h.slot) >= len(t.slots) {
		return
	}
	s := &t.slots[h.slot]
	if !s.set || s.gen != h.gen {
		return
	}
	s.set = false
	s.val = nil
	s.gen++
	t.free = append(t.free, h.slot)
}
