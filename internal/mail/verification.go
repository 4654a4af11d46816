package mail

import "fmt"

// VerificationEmail builds the SafeXchange welcome/verification message.
// baseURL is the externally reachable address of the backend.
func VerificationEmail(username, token, baseURL string) (subject, bodyText, bodyHTML string) {
	verifyURL := fmt.Sprintf("%s/verify/%s", baseURL, token)

	subject = "Welcome to SafeXchange - Verify Your Email"

	bodyText = fmt.Sprintf(`Hi %s,

Welcome to the SafeXchange platform!

We're excited to have you on board. To ensure the security of your account and enable all features, we need to verify your email address.

Please click on the link below to verify your email:
%s

If you didn't create an account on SafeXchange, please ignore this email.

Thank you for choosing SafeXchange for your secure exchange needs.

Best regards,
The SafeXchange Team
`, username, verifyURL)

	bodyHTML = fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Welcome to SafeXchange!</h2>
    <p>Hi %s,</p>
    <p>We're excited to have you on board. To ensure the security of your account and enable all features, we need to verify your email address.</p>
    <p>Please click on the button below to verify your email:</p>
    <p>
      <a href="%s" style="display: inline-block; padding: 10px 20px; background-color: #4CAF50; color: white; text-decoration: none; border-radius: 5px;">Verify Email</a>
    </p>
    <p>If the button doesn't work, you can also copy and paste this link into your browser:</p>
    <p>%s</p>
    <p>If you didn't create an account on SafeXchange, please ignore this email.</p>
    <p>Thank you for choosing SafeXchange for your secure exchange needs.</p>
    <p>Best regards,<br>The SafeXchange Team</p>
  </body>
</html>`, username, verifyURL, verifyURL)

	return subject, bodyText, bodyHTML
}
