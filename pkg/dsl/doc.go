/*
Package dsl provides a Go DSL for programmatically constructing card flows.

It builds the same ordered definition lists that flow files hold, using a
fluent builder instead of hand-written JSON or YAML. Every card starts from
its registered defaults, so a built flow is complete even when only the
links are spelled out. This is particularly useful for starter flows, tests
and generated flows.

Example usage:

	defs, err := dsl.New().
		Message("welcome", "Hi! What do you need?").Go("menu").
		Menu("menu", "Pick one").Option("Billing", "billing").Option("Bye", "bye").Go("bye").
		Webhook("billing", "POST", "https://example.com/billing").Go("bye").Error("bye").
		End("bye").
		Build()
*/
package dsl
