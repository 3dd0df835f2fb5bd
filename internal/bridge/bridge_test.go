package bridge

import (
	"strings"
	"testing"

	"github.com/hazyhaar/posview/reconcile"
)

func TestParseSignal(t *testing.T) {
	tests := []struct {
		payload string
		want    reconcile.Kind
		gen     uint64
		wantErr bool
	}{
		{`{"kind":"mutation","gen":7,"at":"2026-01-02T03:04:05.000Z"}`, reconcile.Mutation, 7, false},
		{`{"kind":"scroll","gen":0}`, reconcile.Scroll, 0, false},
		{`{"kind":"navigate"}`, reconcile.Navigate, 0, false},
		{`{"kind":"keypress"}`, "", 0, true},
		{`not json`, "", 0, true},
	}
	for _, tt := range tests {
		sig, err := parseSignal(tt.payload)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: want error", tt.payload)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.payload, err)
			continue
		}
		if sig.Kind != tt.want || sig.Generation != tt.gen || sig.At.IsZero() {
			t.Errorf("%s: got %+v", tt.payload, sig)
		}
	}
}

func TestSubscribeDispatch(t *testing.T) {
	p := New(nil, nil)
	var a, b int
	cancelA, _ := p.Subscribe(func(reconcile.Signal) { a++ })
	p.Subscribe(func(reconcile.Signal) { b++ })

	p.dispatch(reconcile.Signal{Kind: reconcile.Mutation})
	cancelA()
	p.dispatch(reconcile.Signal{Kind: reconcile.Resize})

	if a != 1 || b != 2 {
		t.Fatalf("deliveries: a=%d b=%d", a, b)
	}
}

func TestScripts(t *testing.T) {
	if !strings.Contains(hookJS, bindingName) {
		t.Fatal("hook.js does not post to the binding")
	}
	for name, js := range map[string]string{
		"hook":     hookJS,
		"snapshot": snapshotJS,
		"apply":    applyJS,
		"route":    routeJS,
		"observe":  observeJS,
	} {
		if strings.TrimSpace(js) == "" {
			t.Errorf("%s.js is empty", name)
		}
	}
	if !strings.Contains(snapshotJS, "data-posview-") {
		t.Fatal("snapshot.js does not report posview attributes")
	}
}

func TestHook_ObserverStartsDisarmed(t *testing.T) {
	for _, want := range []string{"pv.arm", "pv.disarm", "var armed = false", "observer.disconnect()"} {
		if !strings.Contains(hookJS, want) {
			t.Errorf("hook.js lacks %q", want)
		}
	}
	// Nothing may attach the observer at load time.
	if strings.Contains(hookJS, "if (!observe())") {
		t.Error("hook.js observes before being armed")
	}
	if !strings.Contains(observeJS, "pv.arm()") || !strings.Contains(observeJS, "pv.disarm()") {
		t.Error("observe.js does not switch the observer")
	}
}

func TestCloseBeforeInstall(t *testing.T) {
	if err := New(nil, nil).Close(); err != nil {
		t.Fatal(err)
	}
}
