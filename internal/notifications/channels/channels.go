// Package channels implements the delivery transports notifications go
// out on: browser web push, Telegram bots, and LINE Notify.
package channels

// Message is the channel-agnostic content of one notification.
type Message struct {
	Title string
	Body  string
	Link  string
}
