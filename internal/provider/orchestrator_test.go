package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCompleter struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeCompleter) Name() string { return f.name }

func (f *fakeCompleter) Complete(_ context.Context, _ []Message, _ float32) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeCompleter) Stats() Stats {
	return Stats{Provider: f.name, Calls: int64(f.calls)}
}

func TestOrchestratorUsesPrimaryFirst(t *testing.T) {
	a := &fakeCompleter{name: "mistral", text: "{}"}
	b := &fakeCompleter{name: "gemini", text: "{}"}
	o, err := NewOrchestratorWith(0, a, b)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	text, name, err := o.Complete(context.Background(), nil, 0.2, "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "{}" || name != "mistral" {
		t.Fatalf("got text=%q name=%q", text, name)
	}
	if b.calls != 0 {
		t.Fatalf("secondary called %d times, want 0", b.calls)
	}
}

func TestOrchestratorFailsOverInOrder(t *testing.T) {
	a := &fakeCompleter{name: "mistral", err: errors.New("503")}
	b := &fakeCompleter{name: "gemini", err: errors.New("timeout")}
	c := &fakeCompleter{name: "deepseek", text: "{}"}
	o, err := NewOrchestratorWith(0, a, b, c)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, name, err := o.Complete(context.Background(), nil, 0.2, "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if name != "deepseek" {
		t.Fatalf("got provider %q, want deepseek", name)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("attempt counts a=%d b=%d, want 1 each", a.calls, b.calls)
	}
}

func TestOrchestratorExhausted(t *testing.T) {
	last := errors.New("timeout")
	a := &fakeCompleter{name: "mistral", err: errors.New("503")}
	b := &fakeCompleter{name: "gemini", err: last}
	o, err := NewOrchestratorWith(0, a, b)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, _, err = o.Complete(context.Background(), nil, 0.2, "")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want ExhaustedError", err)
	}
	if len(exhausted.Attempted) != 2 {
		t.Fatalf("attempted %v, want both providers", exhausted.Attempted)
	}
	if !errors.Is(err, last) {
		t.Fatalf("ExhaustedError should unwrap to the last failure")
	}
}

func TestOrchestratorOverride(t *testing.T) {
	a := &fakeCompleter{name: "mistral", text: "{}"}
	b := &fakeCompleter{name: "gemini", text: "{}"}
	o, err := NewOrchestratorWith(0, a, b)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, name, err := o.Complete(context.Background(), nil, 0.2, "gemini")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if name != "gemini" {
		t.Fatalf("got provider %q, want gemini", name)
	}
	if a.calls != 0 {
		t.Fatalf("primary called %d times under override, want 0", a.calls)
	}
}

func TestOrchestratorOverrideFailureDoesNotFallBack(t *testing.T) {
	a := &fakeCompleter{name: "mistral", text: "{}"}
	b := &fakeCompleter{name: "gemini", err: errors.New("503")}
	o, err := NewOrchestratorWith(0, a, b)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, _, err = o.Complete(context.Background(), nil, 0.2, "gemini")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want ExhaustedError", err)
	}
	if a.calls != 0 {
		t.Fatalf("override failure must not fall back to other providers")
	}
}

func TestOrchestratorUnknownOverrideUsesNormalOrder(t *testing.T) {
	a := &fakeCompleter{name: "mistral", text: "{}"}
	o, err := NewOrchestratorWith(0, a)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, name, err := o.Complete(context.Background(), nil, 0.2, "claude")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if name != "mistral" {
		t.Fatalf("got provider %q, want mistral", name)
	}
}

func TestSwitchPrimary(t *testing.T) {
	a := &fakeCompleter{name: "mistral", text: "{}"}
	b := &fakeCompleter{name: "gemini", text: "{}"}
	o, err := NewOrchestratorWith(0, a, b)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	if err := o.SwitchPrimary("gemini"); err != nil {
		t.Fatalf("SwitchPrimary: %v", err)
	}
	if o.Primary() != "gemini" {
		t.Fatalf("primary is %q, want gemini", o.Primary())
	}

	_, name, err := o.Complete(context.Background(), nil, 0.2, "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if name != "gemini" {
		t.Fatalf("got provider %q after switch, want gemini", name)
	}

	if err := o.SwitchPrimary("claude"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("got %v, want ErrUnknownProvider", err)
	}
	if o.Primary() != "gemini" {
		t.Fatalf("failed switch must not change the primary")
	}
}

func TestOrchestratorNoProviders(t *testing.T) {
	if _, err := NewOrchestratorWith(0); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("got %v, want ErrNoProviders", err)
	}
	if _, err := NewOrchestrator(OrchestratorConfig{}); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("got %v, want ErrNoProviders for empty config", err)
	}
}

func TestOrchestratorAttemptTimeout(t *testing.T) {
	slow := &fakeCompleter{name: "mistral", err: context.DeadlineExceeded}
	fast := &fakeCompleter{name: "gemini", text: "{}"}
	o, err := NewOrchestratorWith(10*time.Millisecond, slow, fast)
	if err != nil {
		t.Fatalf("NewOrchestratorWith: %v", err)
	}

	_, name, err := o.Complete(context.Background(), nil, 0.2, "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if name != "gemini" {
		t.Fatalf("got provider %q, want gemini after primary timeout", name)
	}
}

func TestNormalizeJSONBlock(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", "Here is the result:\n{\"a\":1}\nHope that helps.", `{"a":1}`},
		{"whitespace", "   {\"a\":1}   ", `{"a":1}`},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeJSONBlock(tc.input); got != tc.want {
				t.Fatalf("normalizeJSONBlock(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
