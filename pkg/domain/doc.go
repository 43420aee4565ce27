/*
Package domain contains the plain data of the cardflow editor core.

It defines the persisted card record, the reference and issue value types,
the advisory events emitted towards the editor surface and the sentinel
errors shared by every layer. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Definition: the flat record persisted for one card (id, type, name, next_id, ...).
  - Reference: one reference field of a card and the id it points to.
  - Issue: a non-fatal defect found during validation.
  - EditorHooks: the markChanged / loadNode hints consumed by the editor surface.
*/
package domain
