// Package queue carries email dispatch through RabbitMQ: flows publish an
// EmailRequested event after their state change has committed, and a
// background consumer renders and delivers the message.
package queue

// EmailRequestedEvent asks the consumer to render the named template with
// the payload and deliver it to Address.
type EmailRequestedEvent struct {
	Address     string            `json:"address"`
	Template    string            `json:"template"`
	Payload     map[string]string `json:"payload"`
	RequestedAt string            `json:"requested_at"`
}
