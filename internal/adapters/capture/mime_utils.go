package capture

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

// extractTextFromMessage returns the plain text content of a message.
// For multipart messages the text/plain parts are concatenated; nested
// multipart/alternative and multipart/mixed bodies are walked.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body, 0)
}

func extractText(contentType, transferEncoding string, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Missing or broken Content-Type is treated as plain text
		mediaType = "text/plain"
		params = map[string]string{}
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		if mediaType != "text/plain" {
			return "", nil
		}
		return decodeTextPart(body, transferEncoding, params["charset"])
	}

	boundary, ok := params["boundary"]
	if !ok || depth >= maxMultipartDepth {
		return "", nil
	}

	var text bytes.Buffer
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was readable before the broken part
			if text.Len() > 0 {
				return text.String(), nil
			}
			return "", err
		}

		// NextPart already undoes quoted-printable and drops the header
		encoding := part.Header.Get("Content-Transfer-Encoding")
		content, err := extractText(part.Header.Get("Content-Type"), encoding, part, depth+1)
		if err != nil {
			continue
		}
		if content != "" {
			text.WriteString(content)
			text.WriteString("\n")
		}
	}

	return text.String(), nil
}

func decodeTextPart(body io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if enc, err := htmlindex.Get(charset); err == nil {
			body = enc.NewDecoder().Reader(body)
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
