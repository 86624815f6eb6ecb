package reply

// DefaultDelimiter is the banner placed above quoted history by
// applications that expect replies by email.
const DefaultDelimiter = "-- REPLY ABOVE THIS LINE --"

// Config lists the configurable markers. It is read once by New; later
// changes to the slices do not affect an existing Extractor.
type Config struct {
	// Delimiters are literal banners that start quoted content.
	Delimiters []string `yaml:"delimiters"`
	// Footers are line prefixes of mail-client boilerplate, such as
	// "Sent from my ", dropped when quoted content follows them.
	Footers []string `yaml:"footers"`
}

// DefaultConfig returns the built-in marker set.
func DefaultConfig() Config {
	return Config{
		Delimiters: []string{DefaultDelimiter},
		Footers:    []string{"Sent from my ", "Get Outlook for "},
	}
}
