package transfer

import "testing"

func TestZeroValueInvalid(t *testing.T) {
	var opts Options
	if opts.Valid() {
		t.Error("zero-value Options must not be valid")
	}
	if (&Options{Collective: true}).Valid() {
		t.Error("manually constructed Options must not be valid")
	}
}

func TestNilSafeKind(t *testing.T) {
	var opts *Options
	if opts.Kind() != KindInvalid {
		t.Errorf("nil Options kind = %v, want KindInvalid", opts.Kind())
	}
	if opts.Valid() {
		t.Error("nil Options must not be valid")
	}
}

func TestConstructors(t *testing.T) {
	if !Default().Valid() {
		t.Error("Default() must be valid")
	}
	opts := New(true, true)
	if !opts.Valid() {
		t.Error("New() must be valid")
	}
	if !opts.Collective || !opts.PreservePartial {
		t.Errorf("New(true, true) = %+v, flags not set", opts)
	}

	// Each call returns an independent bundle.
	a, b := Default(), Default()
	a.Collective = true
	if b.Collective {
		t.Error("Default() bundles share state")
	}
}
