package cmd

import (
	"strings"
	"testing"
)

func TestRunChat(t *testing.T) {
	restore := saveCmdVars(t)
	defer restore()
	isolateHome(t)
	t.Setenv("SQLBUD_OPENAI_API_KEY", "sk-test")
	out, _ := captureOutput()

	client := &fakeClient{text: `{"sql":"SELECT id FROM users"}`}
	useFakeClient(client)
	modelFlag = "gpt-4.1"
	ioIn = strings.NewReader("list users\ncount orders\nexit\n")

	if err := runChat(chatCmd, nil); err != nil {
		t.Fatalf("runChat() error: %v", err)
	}
	if len(client.got) != 2 {
		t.Fatalf("backend called %d times, want 2", len(client.got))
	}
	if !strings.Contains(client.got[1].UserPrompt, "Request: count orders") {
		t.Errorf("second prompt = %q", client.got[1].UserPrompt)
	}
	for _, want := range []string{"SQLBud Chat", "SELECT id FROM users", "Bye!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
