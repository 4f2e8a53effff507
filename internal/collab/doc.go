// Package collab declares the contracts of the external services the engine
// consumes: the pub/sub message bus, the webhook receiver, and the incident
// API. Implementations live in the subpackages and are injected into the
// node-handler modules; the engine itself never constructs one.
package collab
