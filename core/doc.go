// Package core holds the survey hook domain: settings resolution, response
// fetching contracts, the ordered payload model and the event flow. Payload
// rendering, HTTP transport and SQL storage live in adapter packages that
// depend on core; core never imports them.
package core
