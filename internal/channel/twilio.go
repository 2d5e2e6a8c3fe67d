package channel

import (
	"encoding/xml"
	"net/url"
	"strings"
)

// ParseTwilioForm extracts an inbound message from a Twilio webhook form post.
// Returns false when the payload carries no sender.
func ParseTwilioForm(form url.Values) (Inbound, bool) {
	from := strings.TrimSpace(form.Get("From"))
	if from == "" {
		return Inbound{}, false
	}
	return Inbound{
		From:      from,
		To:        form.Get("To"),
		Body:      form.Get("Body"),
		MessageID: form.Get("MessageSid"),
		Provider:  ProviderTwilio,
	}, true
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// TwiML renders a Twilio messaging response document. An empty body yields an
// empty <Response/> so the webhook still acks without sending a message.
func TwiML(body string) []byte {
	doc, err := xml.Marshal(twimlResponse{Message: body})
	if err != nil {
		// The struct has no unmarshalable fields; this cannot happen at runtime.
		doc = []byte("<Response></Response>")
	}
	return append([]byte(xml.Header), doc...)
}
