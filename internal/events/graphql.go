package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
// Errors holds both request errors (syntax, validation) and field errors.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// BatchResolve is emitted once per batched field resolution, i.e. once per
// (parent type, field) pair at each execution depth.
type BatchResolve struct {
	TypeName  string
	FieldName string
	Size      int
	Duration  time.Duration
}
