/*
Package ports defines the driven ports (interfaces) of the Lattice editor.

These interfaces decouple the editor from external implementations, allowing it to
work with various storage backends, remote services and template sources.

# Key Interfaces

  - KVStore: Byte-oriented key-value storage for drafts, metadata backups and sessions.
  - ScenarioAPI: The remote service questionnaires are published to.
  - UserAPI: The remote service managing operator accounts.
  - TemplateSource: A read-only library of starter templates.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
