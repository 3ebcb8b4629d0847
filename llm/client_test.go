package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-crawl-books/config"
)

const completionsURL = "https://api.deepseek.com/chat/completions"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	t.Setenv("DEEPSEEK_API_KEY", "test-key")

	c, err := NewClient(config.DefaultConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	httpmock.ActivateNonDefault(c.rest.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestClientComplete(t *testing.T) {
	c := newTestClient(t)

	body := `{
		"choices": [{"message": {"role": "assistant", "content": "[{\"name\": \"Dune\"}]"}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 30}
	}`
	httpmock.RegisterResponder("POST", completionsURL,
		httpmock.NewStringResponder(http.StatusOK, body).
			HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	got, err := c.Complete(context.Background(), "extract books", "<li>Dune</li>")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if want := `[{"name": "Dune"}]`; got != want {
		t.Fatalf("completion = %q, want %q", got, want)
	}

	if _, err := c.Complete(context.Background(), "extract books", "<li>Dune</li>"); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	prompt, completion := c.Usage()
	if prompt != 240 || completion != 60 {
		t.Fatalf("usage = %d/%d, want 240/60", prompt, completion)
	}
}

func TestClientRateLimited(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("POST", completionsURL,
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error": "rate limit"}`))

	_, err := c.Complete(context.Background(), "sys", "user")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error = %v, want ErrRateLimited", err)
	}
}

func TestClientStatusError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("POST", completionsURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "upstream exploded"))

	_, err := c.Complete(context.Background(), "sys", "user")
	var statusErr StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", statusErr.StatusCode)
	}
}

func TestClientEmptyChoices(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("POST", completionsURL,
		httpmock.NewStringResponder(http.StatusOK, `{"choices": [], "usage": {}}`))

	_, err := c.Complete(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	if _, err := NewClient(config.DefaultConfig()); err == nil {
		t.Fatal("expected error when api key env is empty")
	}
}
