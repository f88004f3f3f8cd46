package config

const redacted = "REDACTED"

// Redacted returns a copy of the configuration with credentials and HTTP
// header values replaced, suitable for printing.
func (c *Config) Redacted() *Config {
	out := *c

	if c.Source.HTTP != nil {
		h := *c.Source.HTTP

		if len(h.Headers) > 0 {
			h.Headers = make(map[string]string, len(c.Source.HTTP.Headers))
			for k := range c.Source.HTTP.Headers {
				h.Headers[k] = redacted
			}
		}

		out.Source.HTTP = &h
	}

	if c.Source.S3 != nil {
		s := *c.Source.S3

		if s.AccessKeyID != "" {
			s.AccessKeyID = redacted
		}

		if s.SecretAccessKey != "" {
			s.SecretAccessKey = redacted
		}

		out.Source.S3 = &s
	}

	if c.Source.Local != nil {
		l := *c.Source.Local
		out.Source.Local = &l
	}

	if c.API != nil {
		a := *c.API
		a.Server.CORSOrigins = append([]string(nil), c.API.Server.CORSOrigins...)
		out.API = &a
	}

	return &out
}
