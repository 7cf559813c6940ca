// Package videometa extracts duration, dimensions and frame rate from
// video files via an ffprobe subprocess, grounded on
// original_source/.../media_scanner/metadata/video_extractor.py
// (extract_video_metadata, _parse_frame_rate).
package videometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bleemesser/gphotocat/internal/errs"
	"github.com/bleemesser/gphotocat/internal/metadata"
)

const subprocessTimeout = 30 * time.Second

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Extract invokes ffprobe on path with a 30 s timeout and JSON output,
// returning duration, the first video stream's dimensions, and its
// frame rate. A timeout or missing binary is reported as
// errs.ErrToolMissing for this file, per SPEC_FULL.md §7.
func Extract(ctx context.Context, ffprobePath, path string) (metadata.Video, error) {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return metadata.Video{}, fmt.Errorf("%w: ffprobe timed out on %s", errs.ErrToolMissing, path)
	}
	if err != nil {
		if isToolNotFound(err) {
			return metadata.Video{}, fmt.Errorf("%w: %v", errs.ErrToolMissing, err)
		}
		return metadata.Video{}, fmt.Errorf("%w: %v", errs.ErrParse, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return metadata.Video{}, fmt.Errorf("%w: %v", errs.ErrParse, err)
	}

	var v metadata.Video
	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			v.DurationSeconds = &d
		}
	}
	for _, s := range probe.Streams {
		if s.CodecType != "video" {
			continue
		}
		w, h := s.Width, s.Height
		v.Width, v.Height = &w, &h
		if fr := parseFrameRate(s.RFrameRate); fr != nil {
			v.FrameRate = fr
		}
		break
	}

	return v, nil
}

// parseFrameRate parses an ffprobe "num/den" rational string, guarding
// against a zero denominator.
func parseFrameRate(s string) *float64 {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return nil
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return nil
	}
	rate := num / den
	return &rate
}

func isToolNotFound(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return execErr.Err == exec.ErrNotFound
	}
	return false
}
