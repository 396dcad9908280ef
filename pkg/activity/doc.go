// Package activity records the GraphQL requests that pass through an
// instrumented transport.
//
// A Store keeps a bounded, append-ordered log of Records. Begin publishes a
// pending record as soon as a request is handed to the network; Complete
// publishes its final form. Published records are never mutated: completion
// swaps in a new *Record with the same ID and Sequence at the same position.
//
// Subscribe returns the retained history together with a live subscription,
// taken under the same lock, so a consumer sees every record exactly once and
// in order. Subscribers that fall behind are dropped instead of slowing
// writers down.
package activity
