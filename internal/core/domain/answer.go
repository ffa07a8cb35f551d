package domain

// Answer is the result of one question.
type Answer struct {
	// Text is the model's final answer.
	Text string

	// Sources is empty when no tool ran or the tool found nothing.
	Sources []Source

	// SessionID is the session the exchange was recorded under.
	SessionID string

	// ToolUsed names the tool that ran, empty when none did.
	ToolUsed string
}

// Exchange is one question/answer pair in a session.
type Exchange struct {
	User      string
	Assistant string
}
