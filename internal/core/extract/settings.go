package extract

// Settings carries the engine configuration shared by every connector.
type Settings struct {
	Retry      Policy
	ChunkSize  int
	StrictSize bool
	Metrics    *Metrics
}

// DefaultSettings returns the default engine configuration.
func DefaultSettings() Settings {
	return Settings{
		Retry:     DefaultPolicy(),
		ChunkSize: DefaultChunkSize,
	}
}

// Policy returns the retry policy for a connector using classify.
func (s Settings) Policy(classify Classifier) Policy {
	p := s.Retry
	p.Classifier = classify
	p.Metrics = s.Metrics
	return p
}

// NewRelay returns a relay over open using the connector's classifier.
func (s Settings) NewRelay(open StreamOpener, classify Classifier) *Relay {
	return NewRelay(open, s.Policy(classify),
		WithChunkSize(s.ChunkSize),
		WithStrictSize(s.StrictSize))
}
