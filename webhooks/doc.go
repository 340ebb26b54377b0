// Package webhooks builds and sends the outbound survey webhook.
//
// Renderer turns resolved settings and a fetched response into an ordered
// payload, either the fixed default shape or a JSON template with
// placeholders. Dispatcher posts or gets that payload through a transport
// resolver and returns the raw outcome without raising.
package webhooks
