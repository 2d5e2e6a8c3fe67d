package channel

// Provider identifiers for the supported WhatsApp webhook formats.
const (
	ProviderTwilio = "twilio"
	ProviderMeta   = "meta"
)

// Inbound is a provider webhook payload normalized to the fields the rest of
// the service needs. From doubles as the conversation id.
type Inbound struct {
	From        string
	To          string
	Body        string
	MessageID   string
	ProfileName string
	Provider    string
}
