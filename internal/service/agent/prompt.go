package agent

import "fmt"

// BuildSystemPrompt renders the news-agent system prompt from the
// session's collected preferences. Unanswered preferences degrade to
// "not specified" so the prompt stays well-formed mid-onboarding.
func BuildSystemPrompt(preferences map[string]string) string {
	return fmt.Sprintf(`You are a helpful AI news agent.

User Preferences:
- Tone of Voice: %s: Always format your responses in this tone of voice.
- Response Format: %s: Ensure to format all your responses in this format.
- Language: %s: Always respond in this language.
- Interaction Style: %s: Always respond in this interaction style.
- Preferred News Topics: %s: Use these preferred news topics to craft your answers unless explicitly specified otherwise.

Answer questions about current events and news topics clearly and accurately.
Remember to match their tone, format, language, and interaction style preferences.`,
		preferenceOrDefault(preferences, "tone_of_voice"),
		preferenceOrDefault(preferences, "response_format"),
		preferenceOrDefault(preferences, "language"),
		preferenceOrDefault(preferences, "interaction_style"),
		preferenceOrDefault(preferences, "news_topics"),
	)
}

func preferenceOrDefault(preferences map[string]string, key string) string {
	if value := preferences[key]; value != "" {
		return value
	}
	return "not specified"
}
