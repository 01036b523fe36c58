package channel

import "encoding/json"

// ContentKind tags the shape of a message's plaintext payload. The
// server never sees this: Content is a client-side tagged variant,
// serialized inside the plaintext that gets encrypted into
// EncryptedMessage.Ciphertext. internal/orchestrator does not use it;
// its send and fetch paths carry raw plaintext bytes.
type ContentKind string

const (
	ContentText   ContentKind = "text"
	ContentFile   ContentKind = "file"
	ContentAction ContentKind = "action"
	ContentSystem ContentKind = "system"
)

// Content is the plaintext payload an orchestrator encrypts into a
// message. Exactly one of the typed fields is meaningful, selected by
// Kind.
type Content struct {
	Kind   ContentKind    `json:"kind"`
	Text   *TextContent   `json:"text,omitempty"`
	File   *FileContent   `json:"file,omitempty"`
	Action *ActionContent `json:"action,omitempty"`
	System *SystemContent `json:"system,omitempty"`
}

// TextContent is a plain chat message.
type TextContent struct {
	Body string `json:"body"`
}

// FileContent references an out-of-band-transferred file by content hash
// and name; the bytes themselves never flow through this layer.
type FileContent struct {
	Name      string `json:"name"`
	MimeType  string `json:"mimeType,omitempty"`
	SizeBytes int64  `json:"sizeBytes"`
	SHA256Hex string `json:"sha256Hex"`
}

// ActionContent is an agent-to-agent directive, e.g. a tool invocation
// request, opaque to this layer beyond its name and arguments.
type ActionContent struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// SystemContent is a channel-management notice (e.g. "agent joined")
// that a client renders distinctly from user-authored content.
type SystemContent struct {
	Event string `json:"event"`
}

// MarshalContent serializes content to the bytes a client encrypts.
// Errors come from JSON encoding (e.g. invalid ActionContent.Args)
// rather than cryptography, so they are returned verbatim. Whether Kind
// matches the populated typed field is not checked.
func MarshalContent(c Content) ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalContent decodes plaintext obtained by decrypting a message
// back into a Content value.
func UnmarshalContent(data []byte) (Content, error) {
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}, err
	}
	return c, nil
}
