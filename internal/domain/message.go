package domain

// Attachment is a file carried by a user turn. Data is base64 encoded.
type Attachment struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Speaker identifies the employee behind a model turn in a brainstorm session.
type Speaker struct {
	EmployeeID EmployeeID `json:"employee_id"`
	Name       string     `json:"name"`
	Avatar     string     `json:"avatar,omitempty"`
}

type ImageStatus string

const (
	ImagePending ImageStatus = "pending"
	ImageReady   ImageStatus = "ready"
	ImageFailed  ImageStatus = "failed"
)

// GeneratedImage is the image slot of a message. A nil slot means no image was requested.
type GeneratedImage struct {
	Status   ImageStatus `json:"status"`
	Data     string      `json:"data,omitempty"`
	MIMEType string      `json:"mime_type,omitempty"`
}

// Message is one turn in a conversation or a brainstorm session.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt Timestamp `json:"created_at"`

	Attachment *Attachment      `json:"attachment,omitempty"`
	Action     *TriggeredAction `json:"action,omitempty"`
	Image      *GeneratedImage  `json:"image,omitempty"`
	Speaker    *Speaker         `json:"speaker,omitempty"`

	// IsTyping marks a placeholder that is later replaced by the speaker's final turn.
	IsTyping bool `json:"is_typing,omitempty"`
	// System marks confirmations and notices authored by the application, not the model.
	System  bool `json:"system,omitempty"`
	Praised bool `json:"praised,omitempty"`
}

// SameSpeaker reports whether m was spoken by the given employee.
func (m *Message) SameSpeaker(id EmployeeID) bool {
	return m.Speaker != nil && m.Speaker.EmployeeID == id
}

// HasPendingImage reports whether m asked for an image that has not been generated yet.
func (m *Message) HasPendingImage() bool {
	return m.Action != nil && m.Action.Kind == ActionImage &&
		m.Image != nil && m.Image.Status == ImagePending
}

// Clone returns a copy of m that shares no mutable state with it.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	if m.Attachment != nil {
		a := *m.Attachment
		out.Attachment = &a
	}
	if m.Action != nil {
		a := *m.Action
		if m.Action.Payload != nil {
			a.Payload = append([]byte(nil), m.Action.Payload...)
		}
		out.Action = &a
	}
	if m.Image != nil {
		img := *m.Image
		out.Image = &img
	}
	if m.Speaker != nil {
		s := *m.Speaker
		out.Speaker = &s
	}
	return &out
}

// CloneMessages deep-copies a log.
func CloneMessages(msgs []*Message) []*Message {
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Clone())
	}
	return out
}

// Window returns the trailing n messages of a log, or all of them when n <= 0.
func Window(msgs []*Message, n int) []*Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
