package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEncoderMissing is returned when the external encoder is not installed.
var ErrEncoderMissing = errors.New("export: encoder not found")

// Metadata is embedded in compressed output.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Encoder converts WAV files by running ffmpeg.
type Encoder struct {
	Binary  string
	Bitrate string
}

func DefaultEncoder() Encoder {
	return Encoder{Binary: "ffmpeg", Bitrate: "128k"}
}

// Args returns the command line used to convert src into dst.
func (e Encoder) Args(src, dst string, meta Metadata) []string {
	args := []string{"-y", "-loglevel", "error", "-i", src, "-ab", e.Bitrate}
	for _, kv := range [][2]string{{"title", meta.Title}, {"artist", meta.Artist}, {"album", meta.Album}} {
		if kv[1] != "" {
			args = append(args, "-metadata", kv[0]+"="+kv[1])
		}
	}
	return append(args, dst)
}

// Encode converts src into dst; the output format follows dst's extension.
func (e Encoder) Encode(ctx context.Context, src, dst string, meta Metadata) error {
	bin, err := exec.LookPath(e.Binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncoderMissing, e.Binary, err)
	}
	cmd := exec.CommandContext(ctx, bin, e.Args(src, dst, meta)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%w: %s: %v", ErrIO, e.Binary, err)
		}
		return fmt.Errorf("%w: %s: %v: %s", ErrIO, e.Binary, err, msg)
	}
	return nil
}
