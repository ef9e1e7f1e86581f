package widgets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/text/language"

	"github.com/verte-zerg/tuilate/internal/model"
)

// ErrSpeechUnavailable is returned when no synthesizer is installed.
var ErrSpeechUnavailable = errors.New("speech synthesis is unavailable")

var voiceLocales = map[string]string{
	"en": "en-US",
	"fr": "fr-FR",
	"es": "es-ES",
	"de": "de-DE",
	"hi": "hi-IN",
}

// LocaleFor maps a target language code to its speech locale tag.
func LocaleFor(target string) (string, bool) {
	loc, ok := voiceLocales[strings.ToLower(target)]
	return loc, ok
}

// Voice is an installed synthesizer voice.
type Voice struct {
	Name string
	Lang string
}

// Utterance is one request to speak.
type Utterance struct {
	Text  string
	Lang  string
	Voice *Voice
}

// Synthesizer speaks utterances.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
}

// SelectVoice returns the first voice whose base language matches target.
func SelectVoice(voices []Voice, target string) (Voice, bool) {
	want, ok := baseLanguage(target)
	if !ok {
		return Voice{}, false
	}
	for _, v := range voices {
		if got, ok := baseLanguage(v.Lang); ok && got == want {
			return v, true
		}
	}
	return Voice{}, false
}

func baseLanguage(code string) (language.Base, bool) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return language.Base{}, false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return language.Base{}, false
	}
	return base, true
}

// Speaker turns output text into speech for a language pair.
type Speaker struct {
	synth  Synthesizer
	logger *slog.Logger
}

// NewSpeaker wraps synth; a nil synth makes every call ErrSpeechUnavailable.
func NewSpeaker(synth Synthesizer, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{synth: synth, logger: logger}
}

// Available reports whether a synthesizer is installed.
func (s *Speaker) Available() bool {
	return s != nil && s.synth != nil
}

// Utterance builds the speech request for text in the pair's target language.
// Voice lookup failures fall back to the locale alone.
func (s *Speaker) Utterance(ctx context.Context, text, pair string) Utterance {
	u := Utterance{Text: text}
	_, target, ok := model.SplitPair(pair)
	if !ok {
		return u
	}
	if loc, ok := LocaleFor(target); ok {
		u.Lang = loc
	}
	voices, err := s.synth.Voices(ctx)
	if err != nil {
		s.logger.Warn("failed to list voices", "error", err)
		return u
	}
	if v, ok := SelectVoice(voices, target); ok {
		u.Voice = &v
	}
	return u
}

// Speak synthesizes text and blocks until playback ends.
func (s *Speaker) Speak(ctx context.Context, text, pair string) error {
	if !s.Available() {
		return ErrSpeechUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.synth.Speak(ctx, s.Utterance(ctx, text, pair))
}

// ExecSynthesizer drives an espeak-compatible command.
type ExecSynthesizer struct {
	bin string
}

// DetectSynthesizer looks for espeak-ng or espeak on PATH.
func DetectSynthesizer() (*ExecSynthesizer, bool) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return &ExecSynthesizer{bin: path}, true
		}
	}
	return nil, false
}

// Voices lists installed voices.
func (e *ExecSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.bin, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return parseVoices(out), nil
}

// Speak runs the synthesizer with text on stdin.
func (e *ExecSynthesizer) Speak(ctx context.Context, u Utterance) error {
	args := []string{}
	switch {
	case u.Voice != nil:
		args = append(args, "-v", u.Voice.Lang)
	case u.Lang != "":
		args = append(args, "-v", strings.ToLower(u.Lang))
	}
	args = append(args, "--stdin")
	cmd := exec.CommandContext(ctx, e.bin, args...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("failed to speak: %w: %s", err, msg)
		}
		return fmt.Errorf("failed to speak: %w", err)
	}
	return nil
}

// parseVoices reads the "--voices" table:
// Pty Language Age/Gender VoiceName File Other Languages
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{Lang: fields[1], Name: fields[3]})
	}
	return voices
}
