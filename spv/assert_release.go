//go:build !debug

package spv

// debugAssert is a no-op in normal builds; build with -tags debug to enable
// the cheap-but-not-free invariant checks it guards.
func debugAssert(cond bool, format string, args ...interface{}) {}
