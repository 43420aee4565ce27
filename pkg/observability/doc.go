/*
Package observability provides monitoring for flow editing hosts.

It includes editor hooks that count and log the hints raised by edits, and
Prometheus collectors for validation runs and the issues they report.
*/
package observability
