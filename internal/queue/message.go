package queue

import (
	"encoding/json"
	"fmt"
)

// TypeInterviewCompleted is sent once when a summary seals a session.
const TypeInterviewCompleted = "interview.completed"

// MessageVersion is the current payload schema version.
const MessageVersion = 1

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type           string `json:"type"`
	SessionID      string `json:"sessionId"`
	UserID         string `json:"userId,omitempty"`
	Role           string `json:"role,omitempty"`
	Level          string `json:"level,omitempty"`
	QuestionsAsked int    `json:"questionsAsked"`
	EndedEarly     bool   `json:"endedEarly"`
	CompletedAt    string `json:"completedAt"`
	RequestID      string `json:"requestId,omitempty"`
	Version        int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Type == "" || msg.SessionID == "" {
		return nil, fmt.Errorf("message type and session id are required")
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
