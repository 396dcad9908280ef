// Package cli provides the gqldevkit command-line interface.
//
// Commands:
//   - serve: run the example host with the debug server
//   - config: display the effective configuration and where each value came from
//   - version: show build information
package cli
