package config

// DefaultSensitiveParams returns the query parameter names stripped from every
// URL before it leaves the process. Names are compared case-insensitively.
func DefaultSensitiveParams() []string {
	return []string{
		// Sessions & tokens
		"token",
		"session",
		"sid",
		"access_token",
		"api_token",
		"apitoken",
		"bearer",
		"jwt",

		// Keys & secrets
		"key",
		"api_key",
		"apikey",
		"api-secret",
		"secret",
		"password",
		"auth",

		// Request forgery & replay guards
		"csrf",
		"xsrf",
		"nonce",
		"salt",
		"hash",
	}
}
