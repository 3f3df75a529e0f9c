/*
Package graph holds the in-memory questionnaire graph and the algorithms that read it.

A Store owns the nodes and edges of one questionnaire. Every mutation is applied to a
fresh copy and published atomically, so a Snapshot taken by a reader is never mutated
afterwards. The resolver turns a node and its outgoing edges into the list of answer
outputs and where each of them leads, and FindOptimalPosition picks a free spot on the
canvas for the next node.
*/
package graph
