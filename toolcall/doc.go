// Package toolcall implements the function-calling sub-engine:
// a process-wide registry of named tools, schema validation of call
// arguments, and isolated execution of registered handlers.
//
// Handlers are untrusted beyond their schema contract. A handler
// panic, error, or timeout becomes a ToolResult with Success=false;
// it never unwinds into the protocol engine's control flow.
package toolcall
