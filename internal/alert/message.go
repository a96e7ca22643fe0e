// internal/alert/message.go
package alert

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
)

// buildMIMEMessage assembles the multipart/mixed message both sinks
// send: HTML body first, then each result artifact as a text/csv
// attachment. Missing attachment files are skipped, not fatal; the
// summary still goes out.
func buildMIMEMessage(from, to string, p Payload, onSkip func(path string, err error)) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", p.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary())
	buf.WriteString("\r\n")

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlPart, err := mw.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(p.HTMLBody)); err != nil {
		return nil, err
	}

	for _, att := range p.Attachments {
		content, err := os.ReadFile(att.Path)
		if err != nil {
			if onSkip != nil {
				onSkip(att.Path, err)
			}
			continue
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "text/csv")
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
