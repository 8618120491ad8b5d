package signature

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pmpayout/internal/logging"
)

const stderrLimit = 200

// Provider returns the perceptual hash of the first frame of the video at link.
type Provider interface {
	Signature(ctx context.Context, link string) (uint64, error)
}

// FrameOptions configures a FrameHasher. Zero values select defaults.
type FrameOptions struct {
	YTDLPBinary     string
	FFmpegBinary    string
	DownloadTimeout time.Duration
	ExtractTimeout  time.Duration
	// TempDir is the parent for per-lookup work directories; empty uses the
	// system temp directory.
	TempDir string
}

// FrameHasher is the yt-dlp + ffmpeg Provider.
type FrameHasher struct {
	opts   FrameOptions
	logger *slog.Logger
}

// NewFrameHasher constructs a FrameHasher.
func NewFrameHasher(opts FrameOptions, logger *slog.Logger) *FrameHasher {
	if strings.TrimSpace(opts.YTDLPBinary) == "" {
		opts.YTDLPBinary = "yt-dlp"
	}
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 60 * time.Second
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = 15 * time.Second
	}
	return &FrameHasher{opts: opts, logger: logging.NewComponentLogger(logger, "signature")}
}

// Signature implements Provider.
func (h *FrameHasher) Signature(ctx context.Context, link string) (uint64, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return 0, &Failure{Kind: KindDownload, Detail: "empty link"}
	}
	ctx, cancel := StartLookup(ctx)
	defer cancel()

	dir, err := os.MkdirTemp(h.opts.TempDir, "pmpayout-frame-*")
	if err != nil {
		return 0, &Failure{Kind: KindDownload, Link: link, Detail: "create work dir", Err: err}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			h.logger.Debug("work dir cleanup failed", logging.String("dir", dir), logging.Error(err))
		}
	}()

	videoPath, err := h.download(ctx, link, dir)
	if err != nil {
		return 0, err
	}
	framePath := filepath.Join(dir, "frame.png")
	if err := h.extract(ctx, link, videoPath, framePath); err != nil {
		return 0, err
	}
	hash, err := decodeAndHash(framePath)
	if err != nil {
		return 0, &Failure{Kind: KindDecode, Link: link, Err: err}
	}
	h.logger.Debug("frame hashed", logging.String(logging.FieldLink, link), logging.String("hash", fmt.Sprintf("%016x", hash)))
	return hash, nil
}

func (h *FrameHasher) download(ctx context.Context, link, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.DownloadTimeout)
	defer cancel()

	template := filepath.Join(dir, "video.%(ext)s")
	output, err := run(ctx, h.opts.YTDLPBinary,
		"-f", "best[ext=mp4]/best",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-o", template,
		"--", link,
	)
	if err != nil {
		return "", newFailure(ctx, KindDownload, link, truncate(output), err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "video.*"))
	if len(matches) == 0 {
		return "", &Failure{Kind: KindDownload, Link: link, Detail: "yt-dlp produced no output file"}
	}
	return matches[0], nil
}

func (h *FrameHasher) extract(ctx context.Context, link, videoPath, framePath string) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.ExtractTimeout)
	defer cancel()

	output, err := run(ctx, h.opts.FFmpegBinary,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vframes", "1",
		"-f", "image2",
		framePath,
	)
	if err != nil {
		return newFailure(ctx, KindExtract, link, truncate(output), err)
	}
	if info, err := os.Stat(framePath); err != nil || info.Size() == 0 {
		return &Failure{Kind: KindExtract, Link: link, Detail: "ffmpeg produced no frame"}
	}
	return nil
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.WaitDelay = 2 * time.Second
	output, err := cmd.CombinedOutput()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return output, fmt.Errorf("%s: %w", filepath.Base(binary), context.DeadlineExceeded)
	}
	if err != nil {
		return output, fmt.Errorf("%s: %w", filepath.Base(binary), err)
	}
	return output, nil
}

func decodeAndHash(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode frame: %w", err)
	}
	return HashImage(img)
}

func truncate(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > stderrLimit {
		text = text[:stderrLimit]
	}
	return text
}
