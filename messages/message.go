package messages

// Message is a single flash message. It is a plain value; copies are
// independent.
type Message struct {
	Level Level  `mapstructure:"level"`
	Text  string `mapstructure:"text"`
}

// String returns the message text.
func (m Message) String() string { return m.Text }

// Format renders the message as "level: text".
func (m Message) Format() string { return m.Level.String() + ": " + m.Text }
