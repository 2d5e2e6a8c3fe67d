package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseTwilioForm(t *testing.T) {
	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("To", "whatsapp:+15559876543")
	form.Set("Body", "hola")
	form.Set("MessageSid", "SM123")

	in, ok := ParseTwilioForm(form)
	if !ok {
		t.Fatalf("ParseTwilioForm() ok = false")
	}
	if in.From != "whatsapp:+15551234567" || in.Body != "hola" || in.MessageID != "SM123" {
		t.Fatalf("unexpected inbound: %+v", in)
	}
	if in.Provider != ProviderTwilio {
		t.Fatalf("Provider = %q, want %q", in.Provider, ProviderTwilio)
	}
}

func TestParseTwilioFormMissingFrom(t *testing.T) {
	form := url.Values{}
	form.Set("Body", "hola")
	if _, ok := ParseTwilioForm(form); ok {
		t.Fatalf("ParseTwilioForm() without From should fail")
	}
}

func TestTwiML(t *testing.T) {
	got := string(TwiML("hola, ¿en qué puedo ayudarte?"))
	if !strings.Contains(got, "<Response><Message>hola, ¿en qué puedo ayudarte?</Message></Response>") {
		t.Fatalf("unexpected TwiML: %s", got)
	}

	empty := string(TwiML(""))
	if strings.Contains(empty, "<Message>") {
		t.Fatalf("empty TwiML should omit <Message>: %s", empty)
	}
}

const sampleMetaPayload = `{
	"entry": [{
		"changes": [{
			"value": {
				"metadata": {"phone_number_id": "1066","display_phone_number": "15550001111"},
				"contacts": [{"profile": {"name": "Carlos"}, "wa_id": "5491122334455"}],
				"messages": [{"from": "5491122334455", "id": "wamid.ABC", "type": "text", "text": {"body": "hola"}}]
			}
		}]
	}]
}`

func TestParseMetaPayload(t *testing.T) {
	in, ok := ParseMetaPayload([]byte(sampleMetaPayload))
	if !ok {
		t.Fatalf("ParseMetaPayload() ok = false")
	}
	if in.From != "5491122334455" || in.Body != "hola" || in.MessageID != "wamid.ABC" {
		t.Fatalf("unexpected inbound: %+v", in)
	}
	if in.ProfileName != "Carlos" || in.To != "1066" {
		t.Fatalf("unexpected contact fields: %+v", in)
	}
	if in.Provider != ProviderMeta {
		t.Fatalf("Provider = %q, want %q", in.Provider, ProviderMeta)
	}
}

func TestParseMetaPayloadStatusOnly(t *testing.T) {
	payload := `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.X","status":"delivered"}]}}]}]}`
	if _, ok := ParseMetaPayload([]byte(payload)); ok {
		t.Fatalf("status-only payload should not produce an inbound message")
	}
	if _, ok := ParseMetaPayload([]byte("not json")); ok {
		t.Fatalf("invalid payload should not produce an inbound message")
	}
}

func TestMetaSenderSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewMetaSender(MetaConfig{
		AccessToken:   "token-1",
		PhoneNumberID: "1066",
		BaseURL:       srv.URL,
	})
	if err := sender.SendText(context.Background(), "5491122334455", "hola"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if gotPath != "/1066/messages" {
		t.Fatalf("request path = %q, want %q", gotPath, "/1066/messages")
	}
	if gotAuth != "Bearer token-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["to"] != "5491122334455" {
		t.Fatalf("to = %v", gotBody["to"])
	}
}

func TestMetaSenderSendTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"bad token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewMetaSender(MetaConfig{AccessToken: "bad", PhoneNumberID: "1066", BaseURL: srv.URL})
	if err := sender.SendText(context.Background(), "549", "hola"); err == nil {
		t.Fatalf("SendText() should fail on non-2xx status")
	}
}
