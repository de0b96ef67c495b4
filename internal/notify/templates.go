package notify

import "html/template"

var statusMessages = map[string]string{
	"accepted":        "Your booking has been accepted! We will send a payment link shortly.",
	"payment_pending": "Your booking is ready for payment. Please complete payment to start the project.",
	"in_progress":     "Great news, work on your project has started!",
	"revision":        "A revision has been submitted for your review.",
	"completed":       "Your project is complete! Check your account to download the deliverables.",
	"cancelled":       "Your booking has been cancelled.",
}

func StatusMessage(status string) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "Your booking status has been updated to: " + status
}

const layoutOpen = `<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">`

const buttonStyle = `display:inline-block;background:#0284c7;color:#fff;padding:12px 24px;border-radius:6px;text-decoration:none;font-weight:500;`

var templates = template.Must(template.New("mail").Parse(`
{{define "footer"}}<hr style="margin:24px 0;border:none;border-top:1px solid #e2e8f0;" />
<p style="color:#999;font-size:12px;">Malak Miqdad, Preserving Heritage Through Food</p></div>{{end}}

{{define "order_download"}}` + layoutOpen + `
<h2>Thank you for your purchase!</h2>
<p>You bought <strong>{{.ProductTitle}}</strong>.</p>
<p>Download your product:</p>
<a href="{{.DownloadURL}}" style="` + buttonStyle + `">Download Now</a>
<p style="margin-top:24px;color:#666;font-size:14px;">This link expires in 24 hours. You can always re-download from <a href="{{.PurchasesURL}}">your account</a>.</p>
{{template "footer"}}{{end}}

{{define "order_generic"}}` + layoutOpen + `
<h2>Thank you for your purchase!</h2>
<p>You bought <strong>{{.ProductTitle}}</strong>.</p>
<p>Your purchase is available in <a href="{{.PurchasesURL}}">your account</a>.</p>
{{template "footer"}}{{end}}

{{define "booking_created"}}` + layoutOpen + `
<h2>New Service Booking</h2>
<p><strong>Customer:</strong> {{.CustomerName}}</p>
<p><strong>Package:</strong> {{.PackageTitle}}</p>
<p><strong>Brief:</strong></p>
<blockquote style="background:#f8fafc;padding:16px;border-left:4px solid #0284c7;border-radius:4px;">{{.Brief}}</blockquote>
<p>Log in to the <a href="{{.AdminURL}}">admin dashboard</a> to review and accept this booking.</p>
{{template "footer"}}{{end}}

{{define "booking_status"}}` + layoutOpen + `
<h2>Booking Update</h2>
<p><strong>Service:</strong> {{.PackageTitle}}</p>
<p>{{.Message}}</p>
{{if .PaymentURL}}<a href="{{.PaymentURL}}" style="` + buttonStyle + `">Pay Now</a>{{end}}
{{template "footer"}}{{end}}
`))
