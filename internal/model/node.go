package model

// NodeType identifies which of the executable step behaviors a node carries.
type NodeType string

const (
	NodePubSubPublish   NodeType = "pubsub_publish"
	NodePubSubSubscribe NodeType = "pubsub_subscribe"
	NodeRestCheck       NodeType = "rest_check"
	NodeWebhookWait     NodeType = "webhook_wait"
	NodeCompare         NodeType = "compare"
	NodeIncident        NodeType = "incident"
	NodeDelay           NodeType = "delay"
	NodeCondition       NodeType = "condition"
)

// Node is one executable step of a synthetic test. Config holds the typed
// configuration struct owned by the handler module registered for Type; the
// registry's NewConfig is the only way new config values are created, so the
// pairing is always consistent.
type Node struct {
	ID     string
	Type   NodeType
	Name   string
	Config any
}

// Edge is a directed dependency: To may not execute until From has produced
// a result. Condition is an optional free-form label carried through from the
// definition; it does not gate scheduling.
type Edge struct {
	From      string
	To        string
	Condition string
}
