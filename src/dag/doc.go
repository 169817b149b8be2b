// Package dag holds a directed acyclic graph of operation IDs and an
// executor that walks it. A node runs only after every dependency
// succeeded; when a node fails, all of its transitive dependents are
// skipped while unrelated branches keep running.
package dag
