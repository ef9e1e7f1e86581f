package widgets

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSwapWithOutput(t *testing.T) {
	res := Swap("en-fr", []string{"en-fr", "fr-en"}, "Hello", "Bonjour")
	if res.Pair != "fr-en" || !res.Swapped {
		t.Fatalf("expected fr-en, got %+v", res)
	}
	if res.Input != "Bonjour" || res.Output != "" {
		t.Fatalf("expected output promoted to input, got %+v", res)
	}
}

func TestSwapWithoutOutput(t *testing.T) {
	res := Swap("en-fr", []string{"en-fr", "fr-en"}, "Hello", "")
	if res.Pair != "fr-en" {
		t.Fatalf("expected fr-en, got %q", res.Pair)
	}
	if res.Input != "Hello" || res.Output != "" {
		t.Fatalf("expected unchanged text, got %+v", res)
	}
}

func TestSwapMissingReverse(t *testing.T) {
	res := Swap("en-hi", []string{"en-hi", "en-fr"}, "Hi", "")
	if res.Pair != "en-hi" || res.Swapped {
		t.Fatalf("expected pair unchanged, got %+v", res)
	}
	if _, ok := ReversePair("garbage", []string{"garbage"}); ok {
		t.Fatalf("malformed pair must not swap")
	}
}

func TestCounterNearLimit(t *testing.T) {
	c := NewCounter(500)
	if state := c.Update(strings.Repeat("a", 400)); state.Near {
		t.Fatalf("400 is not beyond 80%%")
	}
	state := c.Update(strings.Repeat("a", 401))
	if !state.Near || state.Over {
		t.Fatalf("expected near but not over at 401: %+v", state)
	}
	if state.String() != "401/500 characters" {
		t.Fatalf("unexpected counter text: %q", state.String())
	}
}

func TestCounterWarnsOncePerCrossing(t *testing.T) {
	c := NewCounter(500)
	crossings := 0
	lengths := []int{499, 500, 501, 502, 510, 480, 501, 505}
	for _, n := range lengths {
		if c.Update(strings.Repeat("x", n)).Crossed {
			crossings++
		}
	}
	if crossings != 2 {
		t.Fatalf("expected 2 crossings, got %d", crossings)
	}
}

func TestCounterCountsRunes(t *testing.T) {
	c := NewCounter(500)
	if got := c.Update("héllo").Count; got != 5 {
		t.Fatalf("expected 5 runes, got %d", got)
	}
}

func TestCopyFailureOnlyLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ok := Copy("Bonjour", func(string) error { return errors.New("no display") }, logger)
	if ok {
		t.Fatalf("expected copy failure")
	}
	if !strings.Contains(buf.String(), "failed to copy text") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

func TestCopyWritesVerbatim(t *testing.T) {
	var got string
	ok := Copy("  Bonjour\n", func(s string) error { got = s; return nil }, nil)
	if !ok || got != "  Bonjour\n" {
		t.Fatalf("expected verbatim copy, got %q", got)
	}
	if Copy("", func(string) error { t.Fatalf("empty text must not be copied"); return nil }, nil) {
		t.Fatalf("expected empty copy to be skipped")
	}
}

type fakeSynth struct {
	voices []Voice
	spoken []Utterance
	err    error
}

func (f *fakeSynth) Voices(context.Context) ([]Voice, error) { return f.voices, f.err }

func (f *fakeSynth) Speak(_ context.Context, u Utterance) error {
	f.spoken = append(f.spoken, u)
	return nil
}

func TestSpeakSelectsVoiceForTarget(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{{Name: "English", Lang: "en-us"}, {Name: "French", Lang: "fr-fr"}}}
	s := NewSpeaker(synth, nil)
	if err := s.Speak(context.Background(), "Bonjour", "en-fr"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	u := synth.spoken[0]
	if u.Lang != "fr-FR" {
		t.Fatalf("expected fr-FR locale, got %q", u.Lang)
	}
	if u.Voice == nil || u.Voice.Name != "French" {
		t.Fatalf("expected French voice, got %+v", u.Voice)
	}
}

func TestSpeakFallsBackWithoutVoice(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{{Name: "English", Lang: "en-us"}}}
	s := NewSpeaker(synth, nil)
	if err := s.Speak(context.Background(), "नमस्ते", "en-hi"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	u := synth.spoken[0]
	if u.Voice != nil || u.Lang != "hi-IN" {
		t.Fatalf("expected locale-only utterance, got %+v", u)
	}
}

func TestSpeakUnavailable(t *testing.T) {
	s := NewSpeaker(nil, nil)
	if err := s.Speak(context.Background(), "Hola", "en-es"); !errors.Is(err, ErrSpeechUnavailable) {
		t.Fatalf("expected ErrSpeechUnavailable, got %v", err)
	}
}

func TestParseVoices(t *testing.T) {
	out := []byte("Pty Language       Age/Gender VoiceName          File                 Other Languages\n" +
		" 5  af              --/M      Afrikaans          gmw/af\n" +
		" 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)\n")
	voices := parseVoices(out)
	if len(voices) != 2 || voices[1].Lang != "en-us" || voices[1].Name != "English_(America)" {
		t.Fatalf("unexpected voices: %+v", voices)
	}
}
