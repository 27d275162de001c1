package transport_test

import (
	"testing"

	"jobwatch/notify-service/internal/transport"
)

func TestDecodeJob_Valid(t *testing.T) {
	payload := []byte(`{
		"id": 7,
		"title": "Remote Go Developer",
		"employer": "Acme",
		"location": "Taipei",
		"salary": "250/h",
		"content": "Ship features",
		"url": "https://x/1",
		"time": "2025-01-10",
		"created_at": "2025-01-10T12:00:00Z"
	}`)

	job, err := transport.DecodeJob(payload)
	if err != nil {
		t.Fatalf("DecodeJob returned unexpected error: %v", err)
	}
	if job.ID != 7 || job.Title != "Remote Go Developer" || job.URL != "https://x/1" {
		t.Errorf("DecodeJob = %+v, fields not mapped", job)
	}
}

func TestDecodeJob_IgnoresUnknownFields(t *testing.T) {
	payload := []byte(`{"title":"t","url":"https://x/1","unexpected":"field"}`)
	if _, err := transport.DecodeJob(payload); err != nil {
		t.Errorf("DecodeJob with extra field returned error: %v", err)
	}
}

func TestDecodeJob_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"missing title", `{"url":"https://x/1"}`},
		{"missing url", `{"title":"t"}`},
		{"empty object", `{}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := transport.DecodeJob([]byte(c.payload)); err == nil {
				t.Errorf("DecodeJob(%s) expected error, got nil", c.payload)
			}
		})
	}
}

func TestDecodeJob_MalformedJSON(t *testing.T) {
	if _, err := transport.DecodeJob([]byte(`{not json`)); err == nil {
		t.Error("DecodeJob with malformed JSON expected error, got nil")
	}
}
