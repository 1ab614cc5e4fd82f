package thaplmagic

// Status is the terminal state of one run.
type Status int

const (
	// StatusPublished means the image was published.
	StatusPublished Status = iota
	// StatusFailed means the engine failed and its log was published.
	StatusFailed
	// StatusNoArtifact means rendering succeeded but no image was found.
	StatusNoArtifact
	// StatusShowLaTeX means the source was printed instead of rendered.
	StatusShowLaTeX
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPublished:
		return "published"
	case StatusFailed:
		return "failed"
	case StatusNoArtifact:
		return "no-artifact"
	case StatusShowLaTeX:
		return "showlatex"
	default:
		return "unknown"
	}
}

// Outcome is the result of one run. Data, MIME and Metadata are set only
// when Published; Log only when Failed. Cause is the context error of a
// Failed run that was cancelled or timed out.
type Outcome struct {
	Status   Status
	Data     []byte
	MIME     string
	Metadata map[string]any
	Log      string
	Cause    error
}

// HasPayload reports whether the outcome is published to the host.
func (o *Outcome) HasPayload() bool {
	return o.Status == StatusPublished || o.Status == StatusFailed
}

// Payload returns the display data of a Published or Failed outcome.
// Other statuses yield a payload with no data.
func (o *Outcome) Payload() DisplayPayload {
	p := DisplayPayload{Source: SourceTag, Data: map[string][]byte{}}
	switch o.Status {
	case StatusPublished:
		p.Data[o.MIME] = o.Data
		p.Metadata = o.Metadata
	case StatusFailed:
		p.Data[MIMEPlainText] = []byte(o.Log)
	}
	return p
}
