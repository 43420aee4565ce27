/*
Package card implements the behavior wrapped around a card definition.

A Card holds exactly one domain.Definition and a non-owning Graph handle used
to resolve other cards by id. Every card type answers the same questions:
which references it declares, which defects it has, which cards it points
to, which cards point to it, and how to repoint a reference after a rename.

# Validation order

Checks run in a single pass per card:

 1. For each reference: a missing required reference reports "does not point
    to another node"; a reference to the card itself reports "points to self".
 2. Type-specific content checks (empty message, empty media URL, ...) run in
    the same pass as the primary reference's self-loop check and are skipped
    when that reference is missing or self-referencing.
 3. Every remaining reference whose target is unknown to the graph and to its
    auxiliary resolver reports "points to a non-existent node".

A missing reference is never also reported as non-existent.
*/
package card
