package mailer

// Mailer is the outbound notification sink. Sends are best-effort from the
// caller's point of view: services log a failed Send and move on.
type Mailer interface {
	Send(to []string, subject, body string) error
}
