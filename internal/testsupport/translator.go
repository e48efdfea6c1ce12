package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tolk/internal/translate"
)

// FakeTranslator is a scripted translate.Translator for workflow tests.
// By default it returns the request text with a "[lang] " prefix.
type FakeTranslator struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string][]error
	calls     []translate.Request
	// Fn, when set, replaces the default behavior for every call.
	Fn func(ctx context.Context, req translate.Request) (string, error)
}

// NewFakeTranslator returns an empty scripted translator.
func NewFakeTranslator() *FakeTranslator {
	return &FakeTranslator{
		responses: make(map[string]string),
		failures:  make(map[string][]error),
	}
}

// Name implements translate.Translator.
func (f *FakeTranslator) Name() string { return "fake" }

// Respond scripts the translation returned for text.
func (f *FakeTranslator) Respond(text, translated string) *FakeTranslator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[text] = translated
	return f
}

// FailWith queues errors returned for text before any success. Each call
// consumes one error.
func (f *FakeTranslator) FailWith(text string, errs ...error) *FakeTranslator {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[text] = append(f.failures[text], errs...)
	return f
}

// Translate implements translate.Translator.
func (f *FakeTranslator) Translate(ctx context.Context, req translate.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fn := f.Fn
	var scripted error
	if queued := f.failures[req.Text]; len(queued) > 0 {
		scripted = queued[0]
		f.failures[req.Text] = queued[1:]
	}
	response, ok := f.responses[req.Text]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if scripted != nil {
		return "", scripted
	}
	if ok {
		return response, nil
	}
	return fmt.Sprintf("[%s] %s", strings.ToLower(req.TargetLang), req.Text), nil
}

// Calls returns a copy of every request received so far.
func (f *FakeTranslator) Calls() []translate.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]translate.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of Translate calls.
func (f *FakeTranslator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
