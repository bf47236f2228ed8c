// Package internal contains the implementation packages for mdreader.
//
// # Package Organization
//
//   - renderer: markdown to HTML body with goldmark, plus title extraction
//   - page: the self-contained HTML document and the reload client script
//   - convert: file on disk to finished page
//   - cache: the page currently served, swapped atomically
//   - watcher: parent-directory file monitoring with a debouncer
//   - websocket: push channels and the registry that broadcasts reloads
//   - server: loopback HTTP server serving the page and upgrading viewers
//   - session: the watch lifecycle tying all of the above together
//   - opener: launching the platform viewer, WSL aware
//   - pdf: headless Chromium export through go-rod
//   - config, logging, errors, validation, version: ambient support
//
// # Data Flow
//
//	file save -> watcher -> debouncer -> session -> convert -> cache
//	                                          \-> registry -> viewers reload -> server -> cache
//
// The session's control loop is the only writer of the cache and the only
// caller of broadcasts, so a reload is always announced after the page it
// refers to is in place.
package internal
