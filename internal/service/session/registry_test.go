package session_test

import (
	"testing"

	"github.com/lichenway/newsdesk/backend/internal/model/prefs"
	"github.com/lichenway/newsdesk/backend/internal/service/session"
)

func newRegistry() *session.Registry {
	return session.NewRegistry(prefs.Questions())
}

func TestFirstMessageOnlyTriggersFirstQuestion(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")

	intake, step := reg.Ingest("a", "hello")
	if intake != session.IntakeFirst {
		t.Fatalf("expected IntakeFirst, got %v", intake)
	}
	if step.NextPrompt != prefs.Questions()[0].Prompt {
		t.Fatalf("expected question 0 prompt, got %q", step.NextPrompt)
	}

	// The first message is never stored as an answer.
	snap, ok := reg.Snapshot("a")
	if !ok {
		t.Fatal("session missing")
	}
	if snap.NextQuestion != 0 {
		t.Fatalf("expected NextQuestion 0 before any answer, got %d", snap.NextQuestion)
	}
	if len(snap.Preferences) != 0 {
		t.Fatalf("expected no stored preferences, got %v", snap.Preferences)
	}
}

func TestIngestAdvancesOneQuestionAtATime(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.Ingest("a", "hello")

	questions := prefs.Questions()
	answers := []string{"formal", "bullet points", "English", "concise", "technology"}

	for i, answer := range answers {
		intake, step := reg.Ingest("a", answer)
		if intake != session.IntakeAnswer {
			t.Fatalf("answer %d classified as %v", i, intake)
		}
		if step.Key != questions[i].Key {
			t.Fatalf("answer %d stored under %s, want %s", i, step.Key, questions[i].Key)
		}
		if step.Value != answer {
			t.Fatalf("answer %d value %q, want %q", i, step.Value, answer)
		}

		snap, _ := reg.Snapshot("a")
		if snap.NextQuestion != i+1 {
			t.Fatalf("NextQuestion %d after answer %d", snap.NextQuestion, i)
		}

		last := i == len(answers)-1
		if step.Completed != last {
			t.Fatalf("answer %d completed=%v", i, step.Completed)
		}
		if !last && step.NextPrompt != questions[i+1].Prompt {
			t.Fatalf("answer %d next prompt %q", i, step.NextPrompt)
		}
		if last && step.NextPrompt != "" {
			t.Fatalf("final answer carries next prompt %q", step.NextPrompt)
		}
	}

	// Once complete, further input belongs to the backend.
	if intake, _ := reg.Ingest("a", "tell me about space news"); intake != session.IntakeChat {
		t.Fatalf("post-onboarding message classified as %v", intake)
	}
}

func TestSecondMessageStoresFirstPreference(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")

	reg.Ingest("a", "hello") // only prompts question 0, stores nothing
	intake, step := reg.Ingest("a", "formal")
	if intake != session.IntakeAnswer {
		t.Fatalf("second message classified as %v", intake)
	}
	if step.Key != "tone_of_voice" || step.Value != "formal" {
		t.Fatalf("unexpected step: %+v", step)
	}

	snap, _ := reg.Snapshot("a")
	if snap.Preferences["tone_of_voice"] != "formal" {
		t.Fatalf("preference not stored: %v", snap.Preferences)
	}
}

func TestGetOrCreateRecoversLostSession(t *testing.T) {
	reg := newRegistry()

	// No OnConnect: the registry must not fail the event.
	intake, _ := reg.Ingest("ghost", "hello")
	if intake != session.IntakeFirst {
		t.Fatalf("recreated session classified first message as %v", intake)
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", reg.Len())
	}
}

func TestOnDisconnectDropsSession(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.OnDisconnect("a")

	if _, ok := reg.Snapshot("a"); ok {
		t.Fatal("session survived disconnect")
	}
}

func TestOnConnectReinitializesExistingSession(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.Ingest("a", "hello")
	reg.Ingest("a", "casual")

	reg.OnConnect("a")
	snap, _ := reg.Snapshot("a")
	if snap.MessageCount != 0 || snap.NextQuestion != 0 {
		t.Fatalf("reconnect kept stale state: %+v", snap)
	}
}

func TestResetAllRollsBackEverySession(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.OnConnect("b")

	reg.Ingest("a", "hello")
	reg.Ingest("a", "formal")
	reg.SetConversationID("a", "conv-1")
	reg.Ingest("b", "hi there")

	reg.ResetAll()

	for _, id := range []string{"a", "b"} {
		snap, ok := reg.Snapshot(id)
		if !ok {
			t.Fatalf("session %s gone after reset", id)
		}
		if snap.NextQuestion != 0 || snap.MessageCount != 0 || len(snap.Preferences) != 0 {
			t.Fatalf("session %s not reset: %+v", id, snap)
		}
	}

	// The backend handle survives a chat clear.
	if got := reg.ConversationID("a"); got != "conv-1" {
		t.Fatalf("conversation handle lost on reset: %q", got)
	}
}

func TestIngestAfterResetAsksFirstQuestion(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.Ingest("a", "hello")
	reg.Ingest("a", "formal")

	reg.ResetAll()

	// A message arriving right after a reset restarts onboarding; it
	// must not be filed as an answer to question 0.
	intake, step := reg.Ingest("a", "bullet points")
	if intake != session.IntakeFirst {
		t.Fatalf("post-reset message classified as %v", intake)
	}
	if step.NextPrompt != prefs.Questions()[0].Prompt {
		t.Fatalf("expected question 0 prompt, got %q", step.NextPrompt)
	}
	snap, _ := reg.Snapshot("a")
	if len(snap.Preferences) != 0 {
		t.Fatalf("post-reset message stored a preference: %v", snap.Preferences)
	}
}

func TestIngestAtomicUnderConcurrentReset(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			reg.ResetAll()
		}
	}()
	for i := 0; i < 200; i++ {
		reg.Ingest("a", "formal")
	}
	<-done

	// Every answer lands under the question that was pending in the
	// same critical section, so the count of stored preferences always
	// matches the cursor.
	snap, _ := reg.Snapshot("a")
	if snap.NextQuestion != len(snap.Preferences) {
		t.Fatalf("cursor %d disagrees with %d stored preferences", snap.NextQuestion, len(snap.Preferences))
	}
}

func TestPreferencesIncludeUnansweredKeys(t *testing.T) {
	reg := newRegistry()
	reg.OnConnect("a")
	reg.Ingest("a", "hello")
	reg.Ingest("a", "formal")

	got := reg.Preferences("a")
	if len(got) != len(prefs.Questions()) {
		t.Fatalf("expected %d keys, got %d", len(prefs.Questions()), len(got))
	}
	if got["tone_of_voice"] != "formal" {
		t.Fatalf("answered key missing: %v", got)
	}
	if v, ok := got["news_topics"]; !ok || v != "" {
		t.Fatalf("unanswered key should be empty, got %q ok=%v", v, ok)
	}
}
