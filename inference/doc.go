// Package inference defines the contract the protocol engine uses to
// invoke downstream speech and language collaborators. The actual
// inference backends live outside the gateway; only their interface
// boundary is specified here.
//
// Collaborator faults surface as data (an error chunk or a returned
// error), never as panics, so a failing backend degrades one response
// rather than the session loop.
package inference
