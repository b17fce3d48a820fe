package emails

import (
	"bytes"
	"html/template"
	"time"
)

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>FoodShare</title></head>
<body style="margin:0;padding:0;background-color:#F3F4F6;font-family:-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif;color:#1F2937;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr><td align="center" style="padding:40px 0;">
      <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background:#FFFFFF;border-radius:8px;">
        <tr><td style="padding:32px 48px;">
          <h1 style="font-size:22px;margin:0 0 20px 0;color:#166534;">{{.Heading}}</h1>
          {{range .Paragraphs}}<p style="font-size:16px;line-height:1.6;margin:0 0 16px 0;">{{.}}</p>{{end}}
          <p style="font-size:16px;margin:0;">The FoodShare Team</p>
        </td></tr>
        <tr><td style="padding:16px 48px;font-size:13px;color:#6B7280;">&copy; {{.Year}} FoodShare</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`))

// EmailLayout renders heading and paragraphs (escaped) into the shared HTML frame.
func EmailLayout(heading string, paragraphs ...string) string {
	var buf bytes.Buffer
	_ = layoutTmpl.Execute(&buf, struct {
		Heading    string
		Paragraphs []string
		Year       int
	}{heading, paragraphs, time.Now().Year()})
	return buf.String()
}
