// Package matrix resolves which version/variant combinations a run
// processes. It turns a request (optional VERSION and VARIANT) and the
// on-disk layout of build definitions into an ordered list of BuildTargets.
//
// Layout:
//
//	<root>/<version>/Dockerfile          default variant
//	<root>/<version>/alpine/Dockerfile   alpine variant
package matrix
