// Package plan turns selected build targets into typed operations and
// assembles them into a dependency graph with named goals.
//
// Every target yields a build, a test and a push operation. Tests share a
// single test-prepare operation. The designated latest version adds
// tag-latest and push-latest when its default variant is part of the run.
package plan
