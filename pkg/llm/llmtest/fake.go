// Package llmtest provides a scripted completion oracle for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fusion-agent-be/pkg/llm"
)

// Rule answers every prompt containing Contains with Reply, or fails with Err.
type Rule struct {
	Contains string
	Reply    string
	Err      error
}

// Fake matches prompts against rules in order. Unmatched prompts fail.
type Fake struct {
	mu      sync.Mutex
	rules   []Rule
	prompts []string
}

var _ llm.LLMProvider = (*Fake)(nil)

func New(rules ...Rule) *Fake {
	return &Fake{rules: rules}
}

// On appends a rule and returns the fake for chaining.
func (f *Fake) On(contains, reply string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, Rule{Contains: contains, Reply: reply})
	return f
}

// Fail appends a rule that returns err.
func (f *Fake) Fail(contains string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, Rule{Contains: contains, Err: err})
	return f
}

func (f *Fake) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	for _, r := range f.rules {
		if strings.Contains(prompt, r.Contains) {
			if r.Err != nil {
				return "", r.Err
			}
			return r.Reply, nil
		}
	}
	return "", fmt.Errorf("llmtest: no rule for prompt %.60q", prompt)
}

func (f *Fake) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("llmtest: empty history")
	}
	return f.Generate(ctx, history[len(history)-1].Content, opts...)
}

// Prompts returns every prompt seen so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Calls counts prompts containing substr.
func (f *Fake) Calls(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}
