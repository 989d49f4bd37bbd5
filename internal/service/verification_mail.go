package service

import (
	"bytes"
	"html/template"
)

const verificationMailTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="UTF-8">
  <title>{{.BrandName}}</title>
</head>
<body style="margin:0;padding:0;background:#f5f6f8;font-family:Arial,sans-serif;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding:32px 16px;">
        <table role="presentation" width="480" cellspacing="0" cellpadding="0" style="background:#ffffff;border-radius:8px;">
          <tr>
            <td style="padding:24px 32px;font-size:20px;font-weight:bold;color:#111111;">{{.BrandName}}</td>
          </tr>
          <tr>
            <td style="padding:0 32px;font-size:14px;color:#333333;line-height:22px;">
              <p>{{.Email}} 님, 회원가입을 위한 인증번호입니다.</p>
              <p style="font-size:32px;letter-spacing:8px;font-weight:bold;color:#111111;margin:24px 0;">{{.Code}}</p>
              <p>인증번호는 {{.ExpireMinutes}}분 동안 유효합니다.</p>
            </td>
          </tr>
          <tr>
            <td style="padding:24px 32px;font-size:12px;color:#999999;">&copy; {{.Year}} {{.BrandName}}</td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

var verificationMail = template.Must(template.New("verification").Parse(verificationMailTemplate))

type verificationMailData struct {
	BrandName     string
	Email         string
	Code          string
	ExpireMinutes int
	Year          int
}

func renderVerificationMail(data verificationMailData) (string, error) {
	var buf bytes.Buffer
	if err := verificationMail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
