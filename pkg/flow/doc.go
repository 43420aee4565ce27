/*
Package flow holds the in-memory flow graph: the ordered set of cards that
make up one conversation flow.

The graph owns its cards and answers lookups for them. Cards keep a
lookup-only handle back to the graph (card.Graph) and resolve their edges
through it. Structural defects are never errors here: loading recovers from
malformed definitions locally and reports them through CollectIssues
alongside each card's own validation.
*/
package flow
