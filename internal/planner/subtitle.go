package planner

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/backmassage/compatmux/internal/probe"
)

const (
	codecPGS       = "hdmv_pgs_subtitle"
	defaultOCRLang = "eng"
)

// subtitleRule maps (container, source codec) to a text subtitle the
// container can hold. Styled subtitles are flattened to WebVTT and
// normalized first; image subtitles go through OCR.
func subtitleRule(o RuleOptions) Rule {
	return func(s probe.StreamInfo, container string) (Pipeline, error) {
		switch container {
		case "mp4":
			switch s.Codec {
			case "mov_text":
				return Single(Copy{}), nil
			case "subrip":
				return Single(Convert{OutCodec: "mov_text", OutputFormat: "mp4"}), nil
			case "webvtt", "ass", "ssa":
				return Pipeline{
					Extract{OutCodec: "webvtt", OutputFormat: "vtt"},
					o.normalizeStep(),
					Convert{OutCodec: "mov_text", OutputFormat: "mp4"},
				}, nil
			case codecPGS:
				return Pipeline{
					Extract{OutCodec: "copy", OutputFormat: "sup"},
					o.ocrStep(s.Language()),
					Convert{OutCodec: "mov_text", OutputFormat: "mp4"},
				}, nil
			}
		case "mkv":
			switch s.Codec {
			case "subrip":
				return Single(Copy{}), nil
			case "webvtt", "mov_text":
				return Single(Convert{OutCodec: "subrip", OutputFormat: "mkv"}), nil
			case "ass", "ssa":
				return Pipeline{
					Extract{OutCodec: "webvtt", OutputFormat: "vtt"},
					o.normalizeStep(),
					Convert{OutCodec: "subrip", OutputFormat: "srt"},
				}, nil
			case codecPGS:
				return Pipeline{
					Extract{OutCodec: "copy", OutputFormat: "sup"},
					o.ocrStep(s.Language()),
				}, nil
			}
		}
		return Single(Drop{}), nil
	}
}

// normalizeStep runs the sanitize-vtt subcommand of this program, which
// flattens overlapping cues so mov_text and subrip keep every line.
func (o RuleOptions) normalizeStep() External {
	return External{
		Command: []Arg{
			Lit(o.SelfPath), Lit("sanitize-vtt"),
			Lit("-i"), Bind("", SlotInFile),
			Lit("-o"), Bind("", SlotOutFile),
		},
		OutCodec:     "webvtt",
		OutputFormat: "vtt",
		Label:        "webvtt (normalized)",
	}
}

// ocrStep runs PgsToSrt on an extracted .sup file. PgsToSrt ignores
// --output and writes next to its input, so the output path is derived
// from the input.
func (o RuleOptions) ocrStep(lang string) External {
	return External{
		Command: []Arg{
			Lit(o.Dotnet), Lit(o.PgsToSrt),
			Lit("--input"), Bind("", SlotInFile),
			Lit("--tesseractlanguage"), Lit(TesseractLanguage(lang)),
		},
		OutCodec:     "subrip",
		OutputFormat: "srt",
		Output:       replaceExt(".srt"),
	}
}

func replaceExt(ext string) OutputResolver {
	return func(in string) string {
		return strings.TrimSuffix(in, filepath.Ext(in)) + ext
	}
}

// bibliographicCodes maps the ISO 639-2/B codes Matroska files carry to
// their 639-2/T form.
var bibliographicCodes = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"mao": "mri",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// TesseractLanguage converts a stream language tag (ISO 639-1 or 639-2,
// bibliographic codes included) to the ISO 639-2/T code tesseract names
// its models after. Unknown or missing tags give "eng".
func TesseractLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || tag == "und" {
		return defaultOCRLang
	}
	if t, ok := bibliographicCodes[tag]; ok {
		return t
	}
	base, err := language.ParseBase(tag)
	if err != nil {
		return defaultOCRLang
	}
	iso3 := base.ISO3()
	if t, ok := bibliographicCodes[iso3]; ok {
		return t
	}
	if iso3 != "" && iso3 != "und" {
		return iso3
	}
	return defaultOCRLang
}
