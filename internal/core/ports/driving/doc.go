// Package driving provides interfaces for use-case entry points
// (primary/inbound ports) consumed by the CLI, the MCP server and the
// chat-event endpoint.
package driving
