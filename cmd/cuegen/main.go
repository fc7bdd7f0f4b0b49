// Command cuegen writes the game's audio cues as WAV files, for hosting
// them on a CDN instead of the game server.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bucketsort/internal/cue"
)

func main() {
	var (
		out  = flag.String("out", "cues", "output directory")
		rate = flag.Int("rate", int(cue.DefaultSampleRate), "sample rate in Hz")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *out).Msg("create output dir")
	}
	for _, c := range cue.All {
		b, err := cue.Render(c, beep.SampleRate(*rate))
		if err != nil {
			log.Fatal().Err(err).Str("cue", string(c)).Msg("render")
		}
		path := filepath.Join(*out, string(c)+".wav")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("write")
		}
		log.Info().Str("path", path).Int("bytes", len(b)).Msg("wrote cue")
	}
}
