package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, profileField string, concurrency int) *Slack {
	return &Slack{
		botToken:     botToken,
		profileField: profileField,
		concurrency:  concurrency,
	}
}

// NewStoreForTest creates a Store config for testing purposes
func NewStoreForTest(backend, redisURL, projectID string) *Store {
	return &Store{
		backend:   backend,
		redisURL:  redisURL,
		projectID: projectID,
	}
}

// NewBasicAuthForTest creates a BasicAuth config for testing purposes
func NewBasicAuthForTest(username, password string) *BasicAuth {
	return &BasicAuth{
		username: username,
		password: password,
	}
}

// NewRefreshForTest creates a Refresh config for testing purposes
func NewRefreshForTest(intervalSec int) *Refresh {
	return &Refresh{intervalSec: intervalSec}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
