package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending
// email. Text is the plain-text body; HTML is optional.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// WelcomeJob builds the registration welcome mail for a new account.
func WelcomeJob(to, username string) EmailJob {
	return EmailJob{
		To:      to,
		Subject: "Welcome to TestSkool",
		Text:    "Hi " + username + ", your account is ready. You can log in now.",
	}
}
