// Package normcache defines the normalized record cache a GraphQL client
// keeps its results in, plus in-memory implementations and an instrumented
// wrapper.
//
// Records are flat maps keyed by a cache key, usually an object's id. Nested
// objects are replaced by references of the form {"$ref": "<key>"} so each
// object is stored once.
package normcache
