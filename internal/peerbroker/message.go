package peerbroker

import "encoding/json"

type MessageType string

const (
	Open      MessageType = "OPEN"
	Error     MessageType = "ERROR"
	IdTaken   MessageType = "ID-TAKEN"
	Heartbeat MessageType = "HEARTBEAT"
	Offer     MessageType = "OFFER"
	Answer    MessageType = "ANSWER"
	Candidate MessageType = "CANDIDATE"
	Leave     MessageType = "LEAVE"
	Expire    MessageType = "EXPIRE"
)

const (
	errMsgNoIdTokenKey = "No id, token, or key supplied to websocket server"
	errMsgInvalidKey   = "Invalid key provided"
	errMsgIdTaken      = "ID is taken"
)

type Message struct {
	Type    MessageType     `json:"type"`
	Src     string          `json:"src,omitempty"`
	Dst     string          `json:"dst,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type errorPayload struct {
	Msg string `json:"msg"`
}

func newErrorMessage(t MessageType, msg string) Message {
	payload, _ := json.Marshal(errorPayload{Msg: msg})
	return Message{Type: t, Payload: payload}
}

// relayed reports whether a message of type t is forwarded to its dst.
func relayed(t MessageType) bool {
	switch t {
	case Offer, Answer, Candidate, Leave, Expire:
		return true
	}
	return false
}

// queueable reports whether a message of type t waits for an offline dst.
func queueable(t MessageType) bool {
	switch t {
	case Offer, Answer, Candidate:
		return true
	}
	return false
}
