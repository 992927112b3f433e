// Package gateway authenticates external business partners calling the
// credit-evaluation API. Each consumer holds an API key for identification
// and a webhook secret for request signing.
package gateway

import "time"

// Consumer is a registered external caller.
type Consumer struct {
	ID        string
	Name      string
	APIKey    string
	Secret    string
	CreatedAt time.Time
}
