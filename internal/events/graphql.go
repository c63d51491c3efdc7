package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// SubscriptionStart is emitted when a subscription source stream is open.
type SubscriptionStart struct {
	Query         string
	OperationName string
	Field         string
}

// SubscriptionFinish is emitted when a subscription stops delivering events.
type SubscriptionFinish struct {
	Query         string
	OperationName string
	Field         string
	Events        int
	Duration      time.Duration
}
