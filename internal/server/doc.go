// Package server provides the thqm web server: it serves a rendered page of
// entries and reports the entry the user picks on an output stream.
//
// # Endpoints
//
// All routes are GET and evaluated in this order:
//
//   - GET /?cmd=<name> - run a command (only "shutdown" exists)
//   - GET /?select=<entry> - report entry
//   - GET / - the rendered page
//   - GET /select/{entry} - report entry
//   - GET /cmd/{command} - run a command
//
// Every other request is resolved against the static assets of the style,
// or answered with an empty 404.
//
// # Termination
//
// The shutdown command and a selection in oneshot mode do not exit the
// process. They close the channel returned by Done, and Run shuts the HTTP
// server down and returns nil.
//
// # Authentication
//
// When both a login and a password are configured every request, static
// assets included, must carry matching HTTP basic auth credentials.
package server
