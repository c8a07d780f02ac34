package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/walkgif/internal/canvas"
)

var (
	ErrMissingKey   = errors.New("missing required key")
	ErrInvalidValue = errors.New("invalid value")
)

// ResizeWidth is the target width when a scene asks for resizing.
const ResizeWidth = 800

// Config is the run configuration: the validated scene file plus CLI settings.
type Config struct {
	ConfigPath   string
	OutputDir    string
	Workers      int
	ShowStats    bool
	MP4          bool
	Preview      bool
	VideoEncoder string
	BuildVersion string

	Scene  Scene
	Actors []Actor
}

// Scene is the validated scene section.
type Scene struct {
	File        string
	Length      int
	Split       int
	First       int
	Output      string
	Crop        *canvas.CropBox
	ResizeWidth int // 0 keeps the original size
	Preview     bool
	MP4         bool
	QR          *QR
}

// QR is a code stamped onto the exported stills.
type QR struct {
	Text string
	Size int
	X, Y int
}

// Actor is the validated configuration of one actor.
type Actor struct {
	File          string
	Name          string
	XOff, YOff    int
	Crop          *canvas.CropBox
	FrameXOffsets []int // nil means zeros of frame_count
	FrameYOffsets []int
	XSpeed        float64
	YSpeed        float64
	Phase         int
	Trail         int
	AutoMask      string
}

type rawFile struct {
	Scene  *rawScene  `yaml:"scene"`
	Actors []rawActor `yaml:"actors"`
}

type rawScene struct {
	File       *string         `yaml:"file"`
	Length     *int            `yaml:"length"`
	Split      int             `yaml:"split"`
	FirstFrame int             `yaml:"first_frame"`
	Output     string          `yaml:"output"`
	Crop       *canvas.CropBox `yaml:"crop"`
	Resize     bool            `yaml:"resize"`
	Preview    bool            `yaml:"preview"`
	MP4        bool            `yaml:"mp4"`
	QR         *rawQR          `yaml:"qr"`
}

type rawQR struct {
	Text *string `yaml:"text"`
	Size int     `yaml:"size"`
	X    int     `yaml:"x"`
	Y    int     `yaml:"y"`
}

type rawActor struct {
	File          *string         `yaml:"file"`
	Name          string          `yaml:"name"`
	XOff          *int            `yaml:"xoff"`
	YOff          *int            `yaml:"yoff"`
	Crop          *canvas.CropBox `yaml:"crop"`
	FrameXOffsets []int           `yaml:"frame_xoffsets"`
	FrameYOffsets []int           `yaml:"frame_yoffsets"`
	XSpeed        *float64        `yaml:"xspeed"`
	YSpeed        *float64        `yaml:"yspeed"`
	Phase         int             `yaml:"phase"`
	Trail         *int            `yaml:"trail"`
	AutoMask      string          `yaml:"auto_mask"`
}

// Load reads and validates a scene file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

// Parse validates a scene file and fills in defaults.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw rawFile
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	if raw.Scene == nil {
		return nil, fmt.Errorf("scene: %w", ErrMissingKey)
	}
	scene, err := raw.Scene.validate()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Scene: scene}
	for i, ra := range raw.Actors {
		a, err := ra.validate()
		if err != nil {
			return nil, fmt.Errorf("actors[%d].%w", i, err)
		}
		cfg.Actors = append(cfg.Actors, a)
	}
	return cfg, nil
}

func (r *rawScene) validate() (Scene, error) {
	var s Scene
	if r.File == nil {
		return s, fmt.Errorf("scene.file: %w", ErrMissingKey)
	}
	if r.Length == nil {
		return s, fmt.Errorf("scene.length: %w", ErrMissingKey)
	}
	if *r.Length <= 0 {
		return s, fmt.Errorf("scene.length: %w: %d", ErrInvalidValue, *r.Length)
	}
	if r.Split < 0 || r.Split > *r.Length {
		return s, fmt.Errorf("scene.split: %w: %d outside [0, %d]", ErrInvalidValue, r.Split, *r.Length)
	}
	if r.FirstFrame < 0 || r.FirstFrame >= *r.Length {
		return s, fmt.Errorf("scene.first_frame: %w: %d outside [0, %d)", ErrInvalidValue, r.FirstFrame, *r.Length)
	}
	if err := validateCrop(r.Crop); err != nil {
		return s, fmt.Errorf("scene.crop: %w", err)
	}

	s = Scene{
		File:    *r.File,
		Length:  *r.Length,
		Split:   r.Split,
		First:   r.FirstFrame,
		Output:  strings.TrimSuffix(r.Output, ".gif"),
		Crop:    r.Crop,
		Preview: r.Preview,
		MP4:     r.MP4,
	}
	if s.Output == "" {
		s.Output = "out"
	}
	if r.Resize {
		s.ResizeWidth = ResizeWidth
	}

	if r.QR != nil {
		if r.QR.Text == nil {
			return s, fmt.Errorf("scene.qr.text: %w", ErrMissingKey)
		}
		s.QR = &QR{Text: *r.QR.Text, Size: r.QR.Size, X: r.QR.X, Y: r.QR.Y}
		if s.QR.Size == 0 {
			s.QR.Size = 96
		}
		if s.QR.Size < 0 {
			return s, fmt.Errorf("scene.qr.size: %w: %d", ErrInvalidValue, s.QR.Size)
		}
	}
	return s, nil
}

func (r *rawActor) validate() (Actor, error) {
	var a Actor
	switch {
	case r.File == nil:
		return a, fmt.Errorf("file: %w", ErrMissingKey)
	case r.XOff == nil:
		return a, fmt.Errorf("xoff: %w", ErrMissingKey)
	case r.YOff == nil:
		return a, fmt.Errorf("yoff: %w", ErrMissingKey)
	}
	if err := validateCrop(r.Crop); err != nil {
		return a, fmt.Errorf("crop: %w", err)
	}

	a = Actor{
		File:          *r.File,
		Name:          r.Name,
		XOff:          *r.XOff,
		YOff:          *r.YOff,
		Crop:          r.Crop,
		FrameXOffsets: r.FrameXOffsets,
		FrameYOffsets: r.FrameYOffsets,
		XSpeed:        1,
		YSpeed:        1,
		Phase:         r.Phase,
		Trail:         1,
		AutoMask:      r.AutoMask,
	}
	if a.Name == "" {
		a.Name = "Anonymous"
	}
	if r.XSpeed != nil {
		a.XSpeed = *r.XSpeed
	}
	if r.YSpeed != nil {
		a.YSpeed = *r.YSpeed
	}
	if r.Trail != nil {
		if *r.Trail < 1 {
			return a, fmt.Errorf("trail: %w: %d", ErrInvalidValue, *r.Trail)
		}
		a.Trail = *r.Trail
	}
	if a.Phase < 0 {
		return a, fmt.Errorf("phase: %w: %d", ErrInvalidValue, a.Phase)
	}
	switch a.AutoMask {
	case "", "alpha", "outline":
	default:
		return a, fmt.Errorf("auto_mask: %w: %q", ErrInvalidValue, a.AutoMask)
	}
	return a, nil
}

func validateCrop(c *canvas.CropBox) error {
	if c == nil {
		return nil
	}
	if c.W <= 0 || c.H <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", ErrInvalidValue, c.W, c.H)
	}
	return nil
}
