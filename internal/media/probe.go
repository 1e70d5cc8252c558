package media

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
)

// Metadata describes a media file as reported by ffprobe and volumedetect
type Metadata struct {
	Raw        string   `json:"metadata"` // ffprobe JSON, untouched
	Volume     string   `json:"volume"`   // volumedetect report, untouched
	Format     string   `json:"format"`
	Duration   float64  `json:"duration"` // seconds
	BitRate    int64    `json:"bit_rate"`
	MeanVolume *float64 `json:"mean_volume,omitempty"` // dB
	MaxVolume  *float64 `json:"max_volume,omitempty"`  // dB
	Streams    []Stream `json:"streams"`
}

// Stream is one entry of ffprobe's streams array
type Stream struct {
	Index      int    `json:"index"                 yaml:"index"`
	CodecType  string `json:"codec_type"            yaml:"codec_type"`
	CodecName  string `json:"codec_name"            yaml:"codec_name"`
	Width      int    `json:"width,omitempty"       yaml:"width,omitempty"`
	Height     int    `json:"height,omitempty"      yaml:"height,omitempty"`
	Channels   int    `json:"channels,omitempty"    yaml:"channels,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	Rotation   int    `json:"rotation,omitempty"    yaml:"rotation,omitempty"`
}

// HasVideo reports whether any stream is a video stream
func (m *Metadata) HasVideo() bool {
	for _, s := range m.Streams {
		if s.CodecType == "video" {
			return true
		}
	}
	return false
}

var (
	meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?[0-9.]+|-inf) dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume:\s*(-?[0-9.]+|-inf) dB`)
)

func parseProbe(raw string) (*Metadata, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: ffprobe returned invalid JSON", ErrProbe)
	}

	doc := gjson.Parse(raw)
	meta := &Metadata{
		Raw:      raw,
		Format:   doc.Get("format.format_name").String(),
		Duration: doc.Get("format.duration").Float(),
		BitRate:  doc.Get("format.bit_rate").Int(),
		Streams:  []Stream{},
	}

	doc.Get("streams").ForEach(func(_, s gjson.Result) bool {
		stream := Stream{
			Index:      int(s.Get("index").Int()),
			CodecType:  s.Get("codec_type").String(),
			CodecName:  s.Get("codec_name").String(),
			Width:      int(s.Get("width").Int()),
			Height:     int(s.Get("height").Int()),
			Channels:   int(s.Get("channels").Int()),
			SampleRate: int(s.Get("sample_rate").Int()),
		}
		// Older ffprobe builds report rotation as a tag, newer ones as side data.
		if r := s.Get("tags.rotate"); r.Exists() {
			stream.Rotation = int(r.Int())
		} else if r := s.Get("side_data_list.#.rotation").Array(); len(r) > 0 {
			stream.Rotation = int(r[0].Int())
		}
		meta.Streams = append(meta.Streams, stream)
		return true
	})

	return meta, nil
}

// parseVolume fills the mean and max levels from a volumedetect report
func parseVolume(meta *Metadata, report string) {
	meta.Volume = report
	meta.MeanVolume = matchDecibels(meanVolumeRe, report)
	meta.MaxVolume = matchDecibels(maxVolumeRe, report)
}

func matchDecibels(re *regexp.Regexp, report string) *float64 {
	m := re.FindStringSubmatch(report)
	if m == nil || m[1] == "-inf" {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}
