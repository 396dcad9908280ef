// Package graphql holds the GraphQL wire types shared by transports, the
// activity log and the debug server, plus DescribeOperation, which uses
// gqlparser to find the operation a request executes.
//
// Executor is a schema-less resolver runner used by the demo backend.
package graphql
