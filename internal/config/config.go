package config

import "os"

type Config struct {
	Port          string
	GeminiAPIKey  string
	LiveModel     string
	FeedbackModel string
	Voice         string
	AllowedOrigin string
	LogFile       string
}

func Load() Config {
	return Config{
		Port:          getenv("PORT", "8080"),
		GeminiAPIKey:  getenv("GEMINI_API_KEY", ""),
		LiveModel:     getenv("LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
		FeedbackModel: getenv("FEEDBACK_MODEL", "gemini-2.5-flash"),
		Voice:         getenv("INTERVIEW_VOICE", "Kore"),
		AllowedOrigin: getenv("ALLOWED_ORIGIN", "http://localhost:3000"),
		LogFile:       getenv("LOG_FILE", ""),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
