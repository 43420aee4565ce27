/*
Package cardflow is the core of a visual flow-graph editor for conversational
flows.

A flow is a canvas of typed cards (send-message, send-media-message, menu,
webhook, end) wired together by reference fields such as next_id. The core
owns the flow document: it materializes cards from stored definitions,
validates them, resolves their edges and keeps references consistent across
renames and removals. Rendering belongs to the editor surface, which calls in
with user events and listens for two advisory hints.

# Concept

Cards are plain data plus behavior. Each card type is registered once in a
registry and knows how to validate itself, which fields point at other cards,
and how to rewrite those fields. Structural problems (a missing next node, a
self-loop, a dangling reference, an empty media URL) are reported as issues
and never stop the user from editing.

# Usage

	defs, err := flowfile.Read("welcome.json")
	if err != nil {
		log.Fatal(err)
	}

	ed := cardflow.Open(defs, cardflow.WithHooks(domain.EditorHooks{
		OnMarkChanged: func(ctx context.Context, ev *domain.ChangeEvent) {
			log.Println("dirty:", ev.CardID)
		},
	}))

	issues, err := ed.OnDestinationPicked(ctx, "greeting", "menu")
	if err != nil {
		log.Fatal(err)
	}
	for _, issue := range issues {
		fmt.Println(issue)
	}

	// Save the flow back in authoring order.
	err = flowfile.Write("welcome.json", ed.Graph().Definitions())

# Packages

  - pkg/card: the card contract and the built-in card types.
  - pkg/registry: card type registration and default definitions.
  - pkg/flow: the flow graph.
  - pkg/flowfile: JSON and YAML flow documents.
  - pkg/ports, pkg/adapters: flow storage and transports (HTTP, MCP).
  - pkg/session: serialized load, mutate and save cycles for shared hosts.
*/
package cardflow
