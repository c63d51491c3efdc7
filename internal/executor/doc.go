// Package executor runs GraphQL operations against a gqlparser schema,
// delegating field resolution to a Runtime.
//
// Fields the runtime reports as synchronous are resolved and completed as
// soon as they are reached. Asynchronous fields are queued, and every round
// of queued fields goes to Runtime.BatchResolveAsync in a single call; the
// fields their results reach make up the next round. A tree whose deepest
// chain crosses d asynchronous fields therefore costs d batch calls. Root
// fields of a mutation are always resolved synchronously, in document order.
//
// A null in a Non-Null position replaces the nearest nullable ancestor, or
// the whole data when there is none, and queued fields below it are dropped
// without reaching the runtime. Errors carry the response path of the field
// that produced them.
//
// Subscribe opens the source stream of a subscription's root field and
// executes the operation once per event, with the event as root value.
package executor
