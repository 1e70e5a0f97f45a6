// Package fallback implements ordered fallback policies: try levels in order,
// accept the first one that satisfies a predicate, otherwise return the best
// effort seen. Both the search pass cascade and the relevance ladder use it.
package fallback

import (
	"context"
	"errors"
)

// ErrNoLevels is returned when Run is called without any levels.
var ErrNoLevels = errors.New("fallback: no levels")

// Level is one step of a policy.
type Level[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome reports which level produced the value.
type Outcome[T any] struct {
	Value     T
	Index     int
	Name      string
	Attempted int
	Accepted  bool
}

// Policy decides when to stop and which result wins when nothing is accepted.
type Policy[T any] struct {
	// Accept reports whether a level's result is good enough to stop.
	Accept func(T) bool
	// Better reports whether a is strictly preferable to b. When nil the
	// first level's result is the best effort.
	Better func(a, b T) bool
}

// Run executes levels in order. A level error aborts the policy and is
// returned with the outcome gathered so far. Levels that should degrade
// instead of abort must swallow their own errors.
func Run[T any](ctx context.Context, levels []Level[T], p Policy[T]) (Outcome[T], error) {
	if len(levels) == 0 {
		return Outcome[T]{Index: -1}, ErrNoLevels
	}

	var best Outcome[T]
	for i, lvl := range levels {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		v, err := lvl.Run(ctx)
		if err != nil {
			best.Attempted = i + 1
			return best, err
		}

		cur := Outcome[T]{Value: v, Index: i, Name: lvl.Name, Attempted: i + 1}
		if p.Accept != nil && p.Accept(v) {
			cur.Accepted = true
			return cur, nil
		}
		if i == 0 || (p.Better != nil && p.Better(v, best.Value)) {
			best = cur
		}
		best.Attempted = i + 1
	}
	return best, nil
}

// AtLeast returns an Accept predicate satisfied by slices of length >= n.
func AtLeast[E any](n int) func([]E) bool {
	return func(s []E) bool { return len(s) >= n }
}

// MoreItems is a Better predicate preferring the longer slice.
func MoreItems[E any](a, b []E) bool {
	return len(a) > len(b)
}
