package service

import "fmt"

func otpEmailTemplate(code, title, description, appName string) (string, string) {
	subject := fmt.Sprintf("%s: %s", appName, title)
	if description == "" {
		description = "Use this code to continue"
	}
	body := fmt.Sprintf(`%s:

    %s

This code can only be used once and expires soon. If you didn't request it, you can safely ignore this email.

Best,
The %s Team`, description, code, appName)

	return subject, body
}

func welcomeEmailTemplate(name, appName, supportEmail string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`Hi %s,

Your email is verified and your account is active. You can now sign in and start your career coaching journey.

Questions? Reach us at %s.

Best,
The %s Team`, name, supportEmail, appName)

	return subject, body
}
