/*
Package editor ties the questionnaire graph, its template metadata and the
persistence adapters into one editing session.

An Editor owns a graph.Store and a MetadataStore. It runs the add-question flow
(start dialog, editing node, commit or cancel), exports and imports documents,
saves local drafts and publishes to the remote scenario service.

Every Editor operation is safe for concurrent use. Remote calls run outside the
editor lock; Save is guarded by an in-flight flag and LoadScenario by a load
generation, so a slow response never overwrites newer state.
*/
package editor
