/*
Package ports defines the driven ports (interfaces) of the flow editor core.

These interfaces decouple the core from storage backends, so the same flow
can live in memory, on disk, in Redis, in a Loam repository or in SQLite.

# Key Interfaces

  - FlowStore: persists and loads flow documents.
  - DistributedLocker: serializes edits of one flow across replicas.

RunFlowStoreContract is the shared test suite every FlowStore adapter runs.
*/
package ports
