package notification

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

// TemplateFunc renders an HTML mail body.
type TemplateFunc func() (string, error)

var courseEnrollmentTmpl = template.Must(template.New("course_enrollment").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Course Registration Confirmation</title></head>
<body style="font-family: Arial, sans-serif; color: #000000;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; text-align: center;">
    <div style="font-size: 18px; font-weight: bold; margin-bottom: 20px;">Course Registration Confirmation</div>
    <p>Dear {{.UserName}},</p>
    <p>You have successfully registered for the course <strong>"{{.CourseName}}"</strong>. We are excited to have you as a participant!</p>
    <p>Please log in to your learning dashboard to access the course materials and start your learning journey.</p>
  </div>
</body>
</html>`))

var paymentSuccessTmpl = template.Must(template.New("payment_success").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Payment Confirmation</title></head>
<body style="font-family: Arial, sans-serif; color: #000000;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; text-align: center;">
    <div style="font-size: 18px; font-weight: bold; margin-bottom: 20px;">Course Payment Received</div>
    <p>Dear {{.Name}},</p>
    <p>We have received a payment of <strong>₹{{.Amount}}</strong>.</p>
    <p>Your Payment ID is <b>{{.PaymentID}}</b></p>
    <p>Your Order ID is <b>{{.OrderID}}</b></p>
  </div>
</body>
</html>`))

func CourseEnrollmentEmail(courseName, userName string) TemplateFunc {
	return render(courseEnrollmentTmpl, struct {
		CourseName string
		UserName   string
	}{courseName, userName})
}

// PaymentSuccessEmail renders the receipt mail. amountMinor is in minor
// currency units and is shown in major units.
func PaymentSuccessEmail(name string, amountMinor int64, orderID, paymentID string) TemplateFunc {
	return render(paymentSuccessTmpl, struct {
		Name      string
		Amount    string
		OrderID   string
		PaymentID string
	}{name, MajorUnits(amountMinor), orderID, paymentID})
}

func MajorUnits(amountMinor int64) string {
	return decimal.New(amountMinor, -2).String()
}

func render(t *template.Template, data any) TemplateFunc {
	return func() (string, error) {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
