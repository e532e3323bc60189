// Package chat holds the wire messages and the service description of chat.v1.ChatService.
package chat

import "time"

type Media struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

type Expense struct {
	Title            string  `json:"title"`
	Amount           float64 `json:"amount"`
	ParticipantCount int     `json:"participant_count"`
}

type Body struct {
	Text    string   `json:"text,omitempty"`
	Media   *Media   `json:"media,omitempty"`
	Expense *Expense `json:"expense,omitempty"`
}

type Message struct {
	ID           string     `json:"id"`
	Group        string     `json:"group"`
	Cursor       string     `json:"cursor"`
	SenderID     string     `json:"sender_id"`
	Body         Body       `json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
	ClientSentAt *time.Time `json:"client_sent_at,omitempty"`
	DeliveredTo  []string   `json:"delivered_to"`
	ReadBy       []string   `json:"read_by"`
}

type SendMessageRequest struct {
	Group        string     `json:"group"`
	Body         Body       `json:"body"`
	ClientSentAt *time.Time `json:"client_sent_at,omitempty"`
}

type SendMessageResponse struct {
	Message Message `json:"message"`
}

const (
	DirectionNewest = "newest"
	DirectionOldest = "oldest"
)

type ListMessagesRequest struct {
	Group     string  `json:"group"`
	Limit     int     `json:"limit,omitempty"`
	Cursor    *string `json:"cursor,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Next     *string   `json:"next,omitempty"`
}

type SubscribeRequest struct {
	Group string  `json:"group"`
	Since *string `json:"since,omitempty"`
}

// ChatEvent is one item of the Subscribe stream, Kind is "created" or "updated".
type ChatEvent struct {
	Kind    string  `json:"kind"`
	Cursor  string  `json:"cursor"`
	Message Message `json:"message"`
}

type MarkRequest struct {
	Group      string   `json:"group"`
	MessageIDs []string `json:"message_ids"`
}

type MarkResponse struct {
	Changed []string `json:"changed"`
}

type UnreadCountRequest struct {
	Group string `json:"group"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type SearchMessagesRequest struct {
	Group string `json:"group"`
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SearchMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type RegisterEndpointRequest struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

type RegisterEndpointResponse struct {
	EndpointID string `json:"endpoint_id"`
}

type UnregisterEndpointRequest struct {
	EndpointID string `json:"endpoint_id"`
}

type UnregisterEndpointResponse struct{}
