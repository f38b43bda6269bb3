package prefs

// Question is one step of the onboarding questionnaire. Key identifies
// the preference in session state and preference_update events; Prompt
// is the text delivered to the user as a bot message.
type Question struct {
	Key         string `json:"key"`
	Prompt      string `json:"prompt"`
	Description string `json:"description,omitempty"`
}

// Questions provides the fixed onboarding questionnaire. Order matters:
// answers are stored under the key of the question whose prompt was
// asked last.
func Questions() []Question {
	return []Question{
		{
			Key:         "tone_of_voice",
			Prompt:      "Hi, before we begin, please answer some questions. \nWhat's your preferred tone of voice? (formal, casual, enthusiastic)",
			Description: "Preferred communication style",
		},
		{
			Key:         "response_format",
			Prompt:      "How do you like information presented? (bullet points, paragraphs)",
			Description: "Response format preference",
		},
		{
			Key:         "language",
			Prompt:      "What's your preferred language? (English, Spanish, etc.)",
			Description: "Language preference",
		},
		{
			Key:         "interaction_style",
			Prompt:      "What's your preferred interaction style? (concise, detailed)",
			Description: "Level of detail preference",
		},
		{
			Key:         "news_topics",
			Prompt:      "What news topics interest you most? (technology, sports, politics, etc.)",
			Description: "Preferred news topics",
		},
	}
}
