// Package function implements the serverless deployment target: a single
// background-removal handler speaking the proxy-integration event format.
// The runtime there has no full multipart parser, so the package carries
// its own minimal extraction chain.
package function

import "encoding/json"

// Event is the inbound proxy-integration record.
type Event struct {
	HTTPMethod      string            `json:"httpMethod"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// Response is the outbound proxy-integration record.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

func errorBody(message string) string {
	b, _ := json.Marshal(map[string]string{"error": message})
	return string(b)
}
