// Package connection provides the HTTP client opslab-cli uses to reach
// opslab-server. It handles base URL normalization, an optional bearer
// token for the metrics route, and extra trusted CAs for HTTPS servers.
package connection
