package quanta

import "testing"

func TestPromiseThenRunsAsMicrotask(t *testing.T) {
	e := New()
	v, err := e.Eval(`
		let log = "";
		Promise.resolve(1).then(function(v) { log = log + v; });
		log = log + "0";
		log;
	`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	// The synchronous "0" append runs before the .then callback, which is
	// queued as a microtask and only drains after the top-level script
	// finishes (spec §4.7) -- but Eval's own completion value is read
	// before RunMicrotasks drains the queue, so it reflects only the
	// synchronous "0".
	if v.ToString() != "0" {
		t.Errorf("completion value = %q, want %q", v.ToString(), "0")
	}
}

func TestAsyncAwaitUnwrapsResolvedValue(t *testing.T) {
	e := New()
	v, err := e.Eval(`
		async function f() {
			let x = await Promise.resolve(41);
			return x + 1;
		}
		let result = 0;
		f().then(function(v) { result = v; });
		result;
	`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	_ = v
	// result is only assigned once f()'s promise settles and its .then
	// callback runs as a microtask; re-run through the engine to observe
	// it post-drain.
	v2, err := e.Eval("result;")
	if err != nil {
		t.Fatalf("Eval(result): %v", err)
	}
	if v2.ToNumber() != 42 {
		t.Errorf("result = %v, want 42", v2.ToNumber())
	}
}

func TestPromiseRejectionCatchable(t *testing.T) {
	e := New()
	v, err := e.Eval(`
		let caught = "";
		Promise.reject("boom").catch(function(e) { caught = e; });
		caught;
	`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	_ = v
	v2, err := e.Eval("caught;")
	if err != nil {
		t.Fatalf("Eval(caught): %v", err)
	}
	if v2.ToString() != "boom" {
		t.Errorf("caught = %q, want %q", v2.ToString(), "boom")
	}
}
