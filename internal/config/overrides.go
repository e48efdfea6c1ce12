package config

import "strings"

// Overrides carries command-line values applied on top of the loaded
// configuration. Empty fields leave the configured value alone.
type Overrides struct {
	FileName       string
	SrcLang        string
	TargetLang     string
	MaxChunkLength int
	Backend        string
}

// Apply merges o into c, then normalizes and validates the result. Switching
// the backend drops the configured base URL and model so the new backend's
// defaults apply.
func (c *Config) Apply(o Overrides) error {
	if v := strings.TrimSpace(o.FileName); v != "" {
		c.Translation.FileName = v
	}
	if v := strings.TrimSpace(o.SrcLang); v != "" {
		c.Translation.SrcLang = v
	}
	if v := strings.TrimSpace(o.TargetLang); v != "" {
		c.Translation.TargetLang = v
	}
	if o.MaxChunkLength != 0 {
		c.Translation.MaxChunkLength = o.MaxChunkLength
	}
	if v := strings.ToLower(strings.TrimSpace(o.Backend)); v != "" && v != c.Model.Backend {
		c.Model.Backend = v
		c.Model.BaseURL = ""
		c.Model.Model = ""
	}

	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeModel()
	return c.Validate()
}
