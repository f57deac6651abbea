package ffmpeg

import (
	"strconv"

	"github.com/backmassage/compatmux/internal/config"
)

// encoderFor names the encoder of codecs whose native encoder is missing or
// named differently.
var encoderFor = map[string]string{
	"opus":         "libopus",
	"vp8":          "libvpx",
	"vorbis":       "libvorbis",
	"dvb_subtitle": "dvbsub",
	"dvd_subtitle": "dvdsub",
}

// trialParams holds the input conditioning some encoders insist on.
var trialParams = map[string][]string{
	"avui":         {"-vf", "scale=720:576"},
	"dnxhd":        {"-vf", "scale=1280:720,fps=30000/1001,format=yuv422p", "-b:v", "110M"},
	"dvvideo":      {"-vf", "scale=720:576,fps=25/1"},
	"h261":         {"-vf", "scale=352:288"},
	"h263":         {"-vf", "scale=352:288"},
	"adpcm_g726":   {"-ac", "1", "-ar", "8000"},
	"adpcm_g726le": {"-ac", "1", "-ar", "8000"},
	"adpcm_swf":    {"-ar", "44100"},
	"amr_nb":       {"-ac", "1", "-ar", "8000"},
	"amr_wb":       {"-ac", "1", "-ar", "16000"},
	"comfortnoise": {"-ac", "1"},
	"g723_1":       {"-ac", "1", "-ar", "8000"},
	"gsm":          {"-ar", "8000"},
	"gsm_ms":       {"-ar", "8000"},
	"nellymoser":   {"-ac", "1", "-ar", "22050"},
	"roq_dpcm":     {"-ar", "22050"},
}

var typeSpecifier = map[config.StreamType]string{
	config.StreamVideo:      "v",
	config.StreamAudio:      "a",
	config.StreamSubtitle:   "s",
	config.StreamAttachment: "t",
}

// trialDuration bounds audio and video trial encodes, in seconds.
const trialDuration = "10"

// Trial is one attempt at encoding the first stream of a type from a sample
// file with a given codec into a given container.
type Trial struct {
	Sample      string
	Codec       string
	Type        config.StreamType
	Output      string // Its extension selects the container.
	Strict      bool
	StreamIndex int
}

// TrialArgs crafts the argv of t.
func (b *Builder) TrialArgs(t Trial) []string {
	args := b.call(24)
	args = append(args, "-nostats", "-y", "-i", t.Sample)
	if t.Strict {
		args = append(args, "-strict", "-2")
	}
	if t.Type != config.StreamSubtitle {
		args = append(args, "-t", trialDuration)
	}
	args = append(args, trialParams[t.Codec]...)

	enc := t.Codec
	if e, ok := encoderFor[t.Codec]; ok {
		enc = e
	}
	spec := "0:" + typeSpecifier[t.Type] + ":" + strconv.Itoa(t.StreamIndex)
	return append(args, "-map", spec, "-c", enc, t.Output)
}
