// Package graph is the task dependency engine: it builds id-indexed
// adjacency from a snapshot of tasks and edges, decides whether a new edge
// keeps the graph acyclic, and derives earliest starts and the critical path.
//
// Everything here is a pure function of its inputs. Callers hand in a
// consistent snapshot and must serialise check-then-insert themselves.
package graph
