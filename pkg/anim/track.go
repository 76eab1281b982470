// Package anim provides keyframe tracks: ordered mappings from time to a
// value, one per animation channel of a node.
package anim

import (
	"errors"
	"fmt"
	"iter"
	gomath "math"
	"maps"
	"slices"
	"sort"

	"github.com/Faultbox/meshforge/pkg/math"
)

// ErrInvalidTime is returned for key times that are negative or not
// finite.
var ErrInvalidTime = errors.New("invalid key time")

// Keyframe is one point of a track. Time is in seconds.
type Keyframe[T any] struct {
	Time  float32
	Value T
}

// Track is an ordered mapping from time to value. Keys are kept sorted by
// time; setting an existing time replaces its value.
type Track[T any] struct {
	keys []Keyframe[T]
	lerp func(a, b T, t float32) T
}

// NewTrack returns an empty track that interpolates with lerp.
func NewTrack[T any](lerp func(a, b T, t float32) T) *Track[T] {
	return &Track[T]{lerp: lerp}
}

// NewVec3Track returns a track interpolating linearly, used for scale and
// translation.
func NewVec3Track() *Track[math.Vec3] {
	return NewTrack(math.Vec3.Lerp)
}

// NewQuatTrack returns a track interpolating spherically, used for rotation.
func NewQuatTrack() *Track[math.Quat] {
	return NewTrack(math.Quat.Slerp)
}

// Insert inserts or replaces the value at time. Times must be finite and
// not negative, so key times always increase strictly from zero or later.
func (tr *Track[T]) Insert(time float32, value T) error {
	if time < 0 || gomath.IsNaN(float64(time)) || gomath.IsInf(float64(time), 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTime, time)
	}
	i := sort.Search(len(tr.keys), func(i int) bool { return tr.keys[i].Time >= time })
	if i < len(tr.keys) && tr.keys[i].Time == time {
		tr.keys[i].Value = value
		return nil
	}
	tr.keys = slices.Insert(tr.keys, i, Keyframe[T]{Time: time, Value: value})
	return nil
}

// SetPoint is Insert for chained authoring. Invalid times are dropped.
func (tr *Track[T]) SetPoint(time float32, value T) *Track[T] {
	_ = tr.Insert(time, value)
	return tr
}

// Len returns the number of keyframes.
func (tr *Track[T]) Len() int {
	return len(tr.keys)
}

// Keys returns a copy of the keyframes in time order.
func (tr *Track[T]) Keys() []Keyframe[T] {
	return slices.Clone(tr.keys)
}

// Times returns the key times in order.
func (tr *Track[T]) Times() []float32 {
	out := make([]float32, len(tr.keys))
	for i, k := range tr.keys {
		out[i] = k.Time
	}
	return out
}

// Values returns the key values in time order.
func (tr *Track[T]) Values() []T {
	out := make([]T, len(tr.keys))
	for i, k := range tr.keys {
		out[i] = k.Value
	}
	return out
}

// Sample evaluates the track at time. Times before the first key or after
// the last clamp to that key. The zero value is returned for an empty track.
func (tr *Track[T]) Sample(time float32) T {
	var zero T
	switch len(tr.keys) {
	case 0:
		return zero
	case 1:
		return tr.keys[0].Value
	}

	next := sort.Search(len(tr.keys), func(i int) bool { return tr.keys[i].Time > time })
	if next == 0 {
		return tr.keys[0].Value
	}
	if next == len(tr.keys) {
		return tr.keys[next-1].Value
	}

	k0, k1 := tr.keys[next-1], tr.keys[next]
	if tr.lerp == nil || k1.Time == k0.Time {
		return k0.Value
	}
	return tr.lerp(k0.Value, k1.Value, (time-k0.Time)/(k1.Time-k0.Time))
}

// Channel holds the named tracks of one node channel (scale, rotation or
// translation). A node can carry several named animations at once.
type Channel[T any] struct {
	tracks  map[string]*Track[T]
	newFunc func() *Track[T]
}

// NewChannel returns an empty channel creating tracks with newTrack.
func NewChannel[T any](newTrack func() *Track[T]) *Channel[T] {
	return &Channel[T]{newFunc: newTrack}
}

// Track returns the track called name, creating it when missing.
func (c *Channel[T]) Track(name string) *Track[T] {
	if tr, ok := c.tracks[name]; ok {
		return tr
	}
	if c.tracks == nil {
		c.tracks = make(map[string]*Track[T])
	}
	tr := c.newFunc()
	c.tracks[name] = tr
	return tr
}

// Get returns the track called name, or nil.
func (c *Channel[T]) Get(name string) *Track[T] {
	return c.tracks[name]
}

// Remove deletes the track called name.
func (c *Channel[T]) Remove(name string) {
	delete(c.tracks, name)
}

// Names returns the track names in sorted order.
func (c *Channel[T]) Names() []string {
	return slices.Sorted(maps.Keys(c.tracks))
}

// Len returns the number of non-empty tracks.
func (c *Channel[T]) Len() int {
	n := 0
	for _, tr := range c.tracks {
		if tr.Len() > 0 {
			n++
		}
	}
	return n
}

// All yields the non-empty tracks in name order.
func (c *Channel[T]) All() iter.Seq2[string, *Track[T]] {
	return func(yield func(string, *Track[T]) bool) {
		for _, name := range c.Names() {
			tr := c.tracks[name]
			if tr.Len() == 0 {
				continue
			}
			if !yield(name, tr) {
				return
			}
		}
	}
}
