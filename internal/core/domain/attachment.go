package domain

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AttachmentKind selects which MIME classes an attachment slot accepts.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentDocument AttachmentKind = "document"
)

// Attachment is evidence carried as a data URI (base64 payload).
type Attachment struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	MimeType string `json:"mime_type" bson:"mime_type"`
	Size     int    `json:"size" bson:"size"`
	Data     string `json:"data" bson:"data"`
}

// Accepts reports whether mime belongs to the class of kind: image/* for
// images, application/pdf or image/* for documents.
func (k AttachmentKind) Accepts(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if strings.HasPrefix(mime, "image/") {
		return true
	}
	return k == AttachmentDocument && mime == "application/pdf"
}

// ParseAttachment decodes a data URI and validates its MIME class. The
// declared type is checked first; the decoded bytes are then sniffed and
// must not contradict it. maxBytes <= 0 disables the size check.
func ParseAttachment(field string, kind AttachmentKind, name, dataURI string, maxBytes int) (Attachment, error) {
	mime, payload, err := decodeDataURI(dataURI)
	if err != nil {
		return Attachment{}, NewValidationError(field, err.Error())
	}
	if !kind.Accepts(mime) {
		return Attachment{}, NewValidationError(field, fmt.Sprintf("type %q is not accepted for %s attachments", mime, kind))
	}
	if len(payload) == 0 {
		return Attachment{}, NewValidationError(field, "file is empty")
	}
	if maxBytes > 0 && len(payload) > maxBytes {
		return Attachment{}, NewValidationError(field, fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}

	detected := mimetype.Detect(payload)
	if !isGenericMime(detected) && !kind.Accepts(detected.String()) {
		return Attachment{}, NewValidationError(field, fmt.Sprintf("content looks like %s, not %s", detected.String(), mime))
	}

	return Attachment{
		Name:     strings.TrimSpace(name),
		MimeType: mime,
		Size:     len(payload),
		Data:     dataURI,
	}, nil
}

func decodeDataURI(uri string) (string, []byte, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("must be a data URI")
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	params := strings.Split(header, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if mime == "" {
		return "", nil, fmt.Errorf("data URI has no media type")
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload")
	}
	return mime, data, nil
}

// isGenericMime is true when sniffing could not tell anything specific.
func isGenericMime(m *mimetype.MIME) bool {
	return m.Is("application/octet-stream") || m.Is("text/plain")
}
