// Package transfer carries per-operation transfer options through the
// dispatch layer to drivers.
//
// The dispatch layer treats the bundle as opaque except for its kind
// discriminator: options not built by this package (zero values,
// manually constructed structs) are rejected before any I/O happens.
// The one flag the dispatch layer does interpret is Collective, which
// controls whether zero-size operations are forwarded to the driver.
package transfer

// Kind discriminates option bundles. Only KindData bundles are accepted
// by dispatch operations.
type Kind uint8

const (
	// KindInvalid is the zero value; dispatch rejects it.
	KindInvalid Kind = iota

	// KindData marks a bundle built for data transfer operations.
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	default:
		return "invalid"
	}
}

// Options is the per-operation transfer configuration handed through to
// the driver. Construct it with Default or New; the zero value is
// deliberately invalid.
type Options struct {
	kind Kind

	// Collective marks deployments where cooperating participants must
	// issue matching I/O calls in lockstep. When set, a zero-size read
	// or write is still forwarded to the driver instead of being elided,
	// so the collective call sequence stays synchronized across
	// participants.
	Collective bool

	// PreservePartial asks the driver to preserve unwritten portions of
	// a partially overwritten region. Interpreted by drivers only.
	PreservePartial bool
}

// Default returns an independent, valid option bundle with all flags
// off.
func Default() *Options {
	return &Options{kind: KindData}
}

// New returns a valid option bundle with the given flags.
func New(collective, preservePartial bool) *Options {
	return &Options{
		kind:            KindData,
		Collective:      collective,
		PreservePartial: preservePartial,
	}
}

// Kind returns the bundle's kind discriminator. Safe on nil, which
// reports KindInvalid.
func (o *Options) Kind() Kind {
	if o == nil {
		return KindInvalid
	}
	return o.kind
}

// Valid reports whether the bundle was built by this package.
func (o *Options) Valid() bool {
	return o.Kind() == KindData
}
