package speech

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperjump/smartstudy/internal/models"
	"github.com/hyperjump/smartstudy/pkg/executor"
)

// baseWordsPerMinute is espeak-ng's default speaking rate.
const baseWordsPerMinute = 175

// Utterance is one speech request.
type Utterance struct {
	Text     string
	Voice    string // empty means the engine default
	Language string
	Rate     float64
}

// Engine is a text-to-speech backend.
type Engine interface {
	VoiceLister
	// Speak starts speaking and returns without waiting for playback to finish.
	Speak(u Utterance) (<-chan error, error)
}

// Espeak drives the espeak-ng command line.
type Espeak struct {
	command string
	exec    executor.Executor
}

// NewEspeak returns an engine for command (normally "espeak-ng").
func NewEspeak(command string, exec executor.Executor) *Espeak {
	return &Espeak{command: command, exec: exec}
}

// ListVoices runs "<command> --voices" and parses the table.
func (e *Espeak) ListVoices(ctx context.Context) ([]models.Voice, error) {
	out, err := e.exec.Execute(ctx, e.command, "--voices")
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}
	return parseEspeakVoices(out), nil
}

// Speak runs the engine detached. Without a voice, -v is omitted and the
// engine speaks with its default voice.
func (e *Espeak) Speak(u Utterance) (<-chan error, error) {
	args := make([]string, 0, 6)
	if u.Voice != "" {
		args = append(args, "-v", u.Voice)
	}
	args = append(args, "-s", strconv.Itoa(wordsPerMinute(u.Rate)), "--", u.Text)
	return e.exec.Start(e.command, args...)
}

func wordsPerMinute(rate float64) int {
	if rate <= 0 {
		rate = 1
	}
	return int(math.Round(baseWordsPerMinute * rate))
}

// parseEspeakVoices reads the table printed by "espeak-ng --voices":
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 3)
//
// The File column is used as the voice name because -v accepts it directly.
func parseEspeakVoices(out string) []models.Voice {
	var voices []models.Voice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, models.Voice{Name: fields[4], Language: fields[1]})
	}
	return voices
}
