package mailer

import "html/template"

const baseStyle = `body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { color: white; text-align: center; padding: 20px; border-radius: 8px 8px 0 0; }
.content { background-color: #f8f9fa; padding: 30px; border-radius: 0 0 8px 8px; }
.card { background-color: white; padding: 15px; border-radius: 8px; margin: 15px 0; }
.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }`

var otpTmpl = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + baseStyle + `
.header { background-color: #4F46E5; }
.otp-code { font-size: 32px; font-weight: bold; color: #4F46E5; text-align: center; margin: 20px 0; padding: 15px; background-color: white; border-radius: 8px; border: 2px dashed #4F46E5; }
</style></head>
<body><div class="container">
  <div class="header"><h1>&#128218; BookSwap Marketplace</h1></div>
  <div class="content">
    <h2>Hello {{.Name}}!</h2>
    <p>Thank you for joining BookSwap Marketplace! To complete your registration, please use the verification code below:</p>
    <div class="otp-code">{{.OTP}}</div>
    <p>This code will expire in 10 minutes. If you didn't request it, please ignore this email.</p>
    <p><strong>The BookSwap Team</strong></p>
  </div>
  <div class="footer"><p>&copy; BookSwap Marketplace. All rights reserved.</p></div>
</div></body></html>`))

var newRequestTmpl = template.Must(template.New("newRequest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + baseStyle + `
.header { background-color: #10B981; }
.card { border-left: 4px solid #10B981; }
</style></head>
<body><div class="container">
  <div class="header"><h1>&#128214; New Book Request!</h1></div>
  <div class="content">
    <h2>Someone wants your book!</h2>
    <div class="card">
      <h3>Book: "{{.Title}}"</h3>
      <p><strong>Requester:</strong> {{.Requester}}</p>
      {{if .Message}}<p><strong>Message:</strong> "{{.Message}}"</p>{{end}}
    </div>
    <p>Log in to your BookSwap account to accept or decline this request.</p>
    <p><strong>The BookSwap Team</strong></p>
  </div>
  <div class="footer"><p>&copy; BookSwap Marketplace. All rights reserved.</p></div>
</div></body></html>`))

var acceptedTmpl = template.Must(template.New("accepted").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + baseStyle + `
.header { background-color: #10B981; }
.card { border-left: 4px solid #10B981; }
</style></head>
<body><div class="container">
  <div class="header"><h1>&#127881; Request Accepted!</h1></div>
  <div class="content">
    <h2>Good news, {{.Requester}}!</h2>
    <div class="card">
      <p>{{.Owner}} accepted your request for <strong>"{{.Title}}"</strong>.</p>
      {{if .Response}}<p><strong>Their message:</strong> "{{.Response}}"</p>{{end}}
    </div>
    <p>Get in touch to arrange the exchange. Happy reading!</p>
    <p><strong>The BookSwap Team</strong></p>
  </div>
  <div class="footer"><p>&copy; BookSwap Marketplace. All rights reserved.</p></div>
</div></body></html>`))

var declinedTmpl = template.Must(template.New("declined").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>` + baseStyle + `
.header { background-color: #6B7280; }
.card { border-left: 4px solid #6B7280; }
</style></head>
<body><div class="container">
  <div class="header"><h1>Request Update</h1></div>
  <div class="content">
    <h2>Hello {{.Requester}},</h2>
    <div class="card">
      <p>{{.Owner}} declined your request for <strong>"{{.Title}}"</strong>.</p>
      {{if .Response}}<p><strong>Their message:</strong> "{{.Response}}"</p>{{end}}
    </div>
    <p>Don't worry, there are plenty more books on BookSwap.</p>
    <p><strong>The BookSwap Team</strong></p>
  </div>
  <div class="footer"><p>&copy; BookSwap Marketplace. All rights reserved.</p></div>
</div></body></html>`))
