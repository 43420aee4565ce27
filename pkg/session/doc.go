/*
Package session serializes edits of shared flow documents.

An editor host serving several callers treats each flow as an exclusively
owned resource: Manager holds a per-flow mutex (and, optionally, a
distributed lock across replicas) for one load -> mutate -> save cycle, so
every event is applied completely or not at all.
*/
package session
