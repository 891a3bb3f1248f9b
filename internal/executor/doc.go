// Package executor implements a breadth-first, batch-friendly GraphQL executor
// with explicit runtime hooks for synchronous resolution, depth-wise batching of
// asynchronous work, abstract-type resolution, and leaf serialization.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name, or the only one when unnamed).
//  2. Coerces the provided variables against the operation's variable
//     definitions. Errors here stop execution and are all reported.
//  3. Determines the root object type from the operation
//     (Query/Mutation/Subscription) and collects the root selection set.
//
// The document is expected to be validated against the schema already (see
// language.LoadQuery); the executor does not repeat validation.
//
// # Execution Model
//
// Fields are classified by schema.Field.Async:
//   - Synchronous fields are resolved immediately via Runtime.ResolveSync and
//     completed in place. Descending through synchronous fields does not add
//     depth.
//   - Asynchronous fields are queued and resolved together via
//     Runtime.BatchResolveAsync, exactly once per depth.
//
// BFS Loop (per depth)
//
//	A. Sync expansion: resolve and complete sync fields, queue async ones.
//	   Root fields run in document order. A mutation runs the whole loop
//	   for one root field before starting the next.
//	B. Batch execution: call BatchResolveAsync once with every live task
//	   queued at this depth; one result per task, in order.
//	C. Completion: complete each result; objects contribute the async
//	   subfields of the next depth.
//	D. Repeat until no tasks remain or the context is done. When the context
//	   is done, every queued task fails with the context error.
//
// For a query with asynchronous depth d, BatchResolveAsync is invoked exactly
// d times.
//
// Results encode to JSON with object keys in selection order.
//
// # Value Completion
//
//   - Non-Null: a null result records an error and null propagates to the
//     nearest nullable ancestor (the whole data when there is none). Queued
//     tasks under a nullified position are dropped.
//   - List: items are completed with index-aware paths. A null item for a
//     Non-Null item type nullifies the list.
//   - Leaf: Runtime.SerializeLeafValue.
//   - Abstract: Runtime.ResolveType, checked against the schema's possible
//     types, then completed as the concrete object.
//   - Object: fields are collected honouring @skip/@include and fragment type
//     conditions, which match the object type itself or any interface or union
//     it belongs to.
//
// # Errors and Partial Success
//
// Errors are accumulated as located GraphQL errors (message, locations, path,
// extensions) and execution continues with partial data. Batch results are
// independent.
package executor
