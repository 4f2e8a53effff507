// Package app wires a ProbeGrid application instance together: logger,
// environment configuration, collaborator adapters, the node-handler
// registry, the ops HTTP server, and the suite run loop.
package app
