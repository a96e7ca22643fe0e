// internal/alert/message_test.go
package alert

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMEMessage_BodyAndAttachments(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "report.csv")
	csvContent := "caregiver_id,risk_level\nCG-001,HIGH\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o644))

	p := Payload{
		Subject:  "[WeCare247] High & Medium churn risk caregivers",
		HTMLBody: "<html><body><b>1 caregivers</b></body></html>",
		Attachments: []Attachment{
			{Filename: "report.csv", Path: csvPath},
		},
	}

	msg, err := buildMIMEMessage("alerts@example.com", "ops@example.com", p, nil)
	require.NoError(t, err)

	raw := string(msg)
	assert.Contains(t, raw, "From: alerts@example.com")
	assert.Contains(t, raw, "To: ops@example.com")
	assert.Contains(t, raw, "Subject: [WeCare247] High & Medium churn risk caregivers")
	assert.Contains(t, raw, "Content-Type: multipart/mixed")
	assert.Contains(t, raw, "<b>1 caregivers</b>")
	assert.Contains(t, raw, `attachment; filename="report.csv"`)
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte(csvContent)))
}

func TestBuildMIMEMessage_MissingAttachmentSkipped(t *testing.T) {
	p := Payload{
		Subject:  "subject",
		HTMLBody: "<html></html>",
		Attachments: []Attachment{
			{Filename: "gone.csv", Path: "/nonexistent/gone.csv"},
		},
	}

	var skipped []string
	msg, err := buildMIMEMessage("a@example.com", "b@example.com", p, func(path string, _ error) {
		skipped = append(skipped, path)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/nonexistent/gone.csv"}, skipped)
	assert.False(t, strings.Contains(string(msg), "gone.csv"), "missing attachment must not appear in the message")
}
