//go:build debug

package spv

// debugAssert panics like assert when built with -tags debug. Checks gated
// behind this build tag are ones expensive or noisy enough to skip by
// default but worth enabling while chasing a Mapper bug.
func debugAssert(cond bool, format string, args ...interface{}) {
	assert(cond, format, args...)
}
