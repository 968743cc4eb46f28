// Package either provides a two-case result type used to return domain
// failures as values instead of errors the caller may ignore.
package either

// Either holds exactly one of a Left value (the failure) or a Right value
// (the success). The zero value is a Left holding the zero L.
type Either[L, R any] struct {
	left    L
	right   R
	isRight bool
}

// Left builds a failed result.
func Left[L, R any](v L) Either[L, R] {
	return Either[L, R]{left: v}
}

// Right builds a successful result.
func Right[L, R any](v R) Either[L, R] {
	return Either[L, R]{right: v, isRight: true}
}

// IsRight reports whether e was built with Right.
func (e Either[L, R]) IsRight() bool { return e.isRight }

// IsLeft reports whether e was built with Left.
func (e Either[L, R]) IsLeft() bool { return !e.isRight }

// Unwrap returns both sides. Only the side selected by IsRight carries a
// value; the other one is its type's zero value.
func (e Either[L, R]) Unwrap() (L, R) {
	return e.left, e.right
}

// LeftValue returns the failure and true when e is a Left.
func (e Either[L, R]) LeftValue() (L, bool) {
	return e.left, !e.isRight
}

// RightValue returns the success value and true when e is a Right.
func (e Either[L, R]) RightValue() (R, bool) {
	return e.right, e.isRight
}

// Match calls onLeft or onRight depending on the case held by e and
// returns what the called function returns.
func Match[L, R, T any](e Either[L, R], onLeft func(L) T, onRight func(R) T) T {
	if e.isRight {
		return onRight(e.right)
	}
	return onLeft(e.left)
}
