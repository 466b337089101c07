package prompt

// subjectSeparator sits between the style prefix and the caller's subject.
// The backend's prompt conventions depend on this exact byte sequence, so it
// must not change.
const subjectSeparator = "\n\nSubject: "

// Compose joins the process-wide style prefix with one caller-supplied
// subject. Pure and total: every input yields a prompt.
func Compose(stylePrefix, subject string) string {
	return stylePrefix + subjectSeparator + subject
}
