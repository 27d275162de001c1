package model_test

import (
	"testing"

	"jobwatch/notify-service/internal/model"
)

func TestParseChannel_ValidValues(t *testing.T) {
	valid := []string{"email", "discord", "telegram"}
	for _, s := range valid {
		got, err := model.ParseChannel(s)
		if err != nil {
			t.Errorf("ParseChannel(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseChannel(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseChannel_InvalidValue(t *testing.T) {
	for _, s := range []string{"sms", "EMAIL", " email", ""} {
		if _, err := model.ParseChannel(s); err == nil {
			t.Errorf("ParseChannel(%q) expected error, got nil", s)
		}
	}
}

func TestParseChannel_AllConstantsRoundTrip(t *testing.T) {
	all := []model.Channel{model.ChannelEmail, model.ChannelDiscord, model.ChannelTelegram}
	for _, ch := range all {
		got, err := model.ParseChannel(string(ch))
		if err != nil {
			t.Errorf("ParseChannel(%q) unexpected error: %v", ch, err)
		}
		if got != ch {
			t.Errorf("ParseChannel(%q) = %q, want %q", ch, got, ch)
		}
	}
}
