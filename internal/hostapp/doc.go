// Package hostapp is the example host application run by `gqldevkit serve`.
//
// It owns a devkit.Kit, loads a post list through the kit's transport,
// normalizes the result into the kit's cache, prints the debug server URL
// and reacts to user actions such as toggling console redirection.
package hostapp
