package mailer

import (
	"fmt"
	"html"

	"github.com/ufacm/checkin"
)

type rendered struct {
	subject string
	text    string
	html    string
}

func renderCode(appName, code string, kind checkin.OTPType) rendered {
	purpose := "confirm your email address"
	if kind != checkin.OTPSignup {
		purpose = "continue"
	}

	return rendered{
		subject: fmt.Sprintf("%s verification code", appName),
		text: fmt.Sprintf(
			"Your %s verification code is %s.\n\nEnter it in the app to %s. The code expires soon and can be used once.\n",
			appName, code, purpose,
		),
		html: fmt.Sprintf(
			`<p>Your %s verification code is</p><p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p><p>Enter it in the app to %s. The code expires soon and can be used once.</p>`,
			html.EscapeString(appName), html.EscapeString(code), purpose,
		),
	}
}
