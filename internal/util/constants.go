package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// gin context keys
const (
	ContextUserKey = "user"
	ContextTraceID = "trace_id"
)

// websocket message types exchanged on /api/workspaces/:id/ws
const (
	MessageFocus    = "FOCUS"
	MessageSettled  = "SETTLED"
	MessageStatus   = "STATUS"
	MessageContext  = "CONTEXT"
	MessageSaved    = "SAVED"
	MessageDrag     = "DRAG"
	MessageError    = "ERROR"
	MessagePing     = "PING"
	MessageRejected = "REJECTED"
)
