// Package apiclient implements the authenticated client layer for the fleet API.
//
// ConfigLoader caches the remote configuration with single-flight load
// coalescing. Client issues token-authenticated requests with origin
// resolution and failure classification. Coordinator wraps calls in an
// observable loading/error lifecycle for the presentation layer.
package apiclient
