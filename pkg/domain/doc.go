/*
Package domain contains the core domain models of the Lattice questionnaire editor.

It defines the entities of a branching questionnaire: question and section nodes, the
edges that route a respondent from one answer to the next question, template metadata,
drafts and the remote scenario records. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A question, the transient question being composed, or a section divider.
  - Edge: A directed routing rule leaving a node through one of its output handles.
  - Handle: The named output of a node ("option-2", "yes", "multi-all", ...).
  - TemplateMetadata: Name, facility types and service lines of the questionnaire.
  - Draft: A locally persisted snapshot of an unfinished questionnaire.
  - Scenario: The remote, versioned record a questionnaire is published as.
*/
package domain
