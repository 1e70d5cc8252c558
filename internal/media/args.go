package media

import "strings"

// AudioOptions controls an mp3 conversion
type AudioOptions struct {
	Bitrate string `json:"audio_bitrate"` // e.g. "192k"
	Volume  string `json:"audio_volume"`  // ffmpeg volume filter value, e.g. "1.5" or "3dB"
}

// VideoOptions controls an mp4 conversion
type VideoOptions struct {
	Bitrate  string `json:"audio_bitrate"`
	Volume   string `json:"audio_volume"`
	Size     string `json:"size"`     // scale filter value, e.g. "1280:-2"
	Rotation string `json:"rotation"` // transpose filter value, e.g. "1"
}

func probeArgs(path string) []string {
	return []string{
		"-hide_banner",
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-i", path,
	}
}

func volumeArgs(path string) []string {
	return []string{
		"-hide_banner",
		"-i", path,
		"-vn",
		"-af", "volumedetect",
		"-f", "null",
		"-",
	}
}

// commonArgs starts every conversion: errors only on stderr, overwrite, mp3 audio
func commonArgs(src, bitrate, volume string) []string {
	args := []string{
		"-i", src,
		"-loglevel", "error",
		"-y",
		"-acodec", "libmp3lame",
	}
	if bitrate != "" {
		args = append(args, "-b:a", bitrate)
	}
	if volume != "" {
		args = append(args, "-filter:a", "volume="+volume)
	}
	return args
}

func audioArgs(src, dst string, opts AudioOptions) []string {
	args := commonArgs(src, opts.Bitrate, opts.Volume)
	return append(args, "-f", "mp3", dst)
}

func videoArgs(src, dst string, opts VideoOptions) []string {
	args := commonArgs(src, opts.Bitrate, opts.Volume)
	args = append(args, "-vcodec", "libx264")
	if filters := videoFilters(opts); filters != "" {
		args = append(args, "-filter:v", filters)
	}
	return append(args, "-f", "mp4", dst)
}

func videoFilters(opts VideoOptions) string {
	var filters []string
	if opts.Size != "" {
		filters = append(filters, "scale="+opts.Size)
	}
	if opts.Rotation != "" {
		filters = append(filters, "transpose="+opts.Rotation)
	}
	return strings.Join(filters, ",")
}
