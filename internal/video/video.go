package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"time"
)

// FrameDelay is how long every frame of the animation is shown.
const FrameDelay = 100 * time.Millisecond

type VideoEncoder interface {
	EncodeAnimation(ctx context.Context, frames []*image.RGBA, path string, delay time.Duration) error
}

// FFmpegEncoder pipes raw RGBA frames into the system ffmpeg.
type FFmpegEncoder struct {
	Codec   string
	Quality int
}

func (e *FFmpegEncoder) EncodeAnimation(ctx context.Context, frames []*image.RGBA, path string, delay time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	b := frames[0].Bounds()
	args := e.buildFFmpegArgs(b.Dx(), b.Dy(), delay, path)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных, кадр за кадром
	for i, f := range frames {
		if err := writeRawRGBA(stdin, f); err != nil {
			stdin.Close()
			cmd.Wait()
			return fmt.Errorf("write raw error, frame %d: %w", i, err)
		}
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}

	return nil
}

func (e *FFmpegEncoder) buildFFmpegArgs(inputW, inputH int, delay time.Duration, videoPath string) []string {
	fps := float64(time.Second) / float64(delay)

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-framerate", fmt.Sprintf("%g", fps),
		"-i", "-",
		// yuv420p требует чётных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-c:v", e.Codec,
	}

	// Качество в зависимости от энкодера
	switch e.Codec {
	case "h264_videotoolbox":
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// DefaultQuality mirrors the usual CRF/bitrate for each codec.
func DefaultQuality(codec string) int {
	switch codec {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
