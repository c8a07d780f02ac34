package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/walkgif/internal/actor"
	"github.com/ivlev/walkgif/internal/analyzer"
	"github.com/ivlev/walkgif/internal/canvas"
	"github.com/ivlev/walkgif/internal/config"
	"github.com/ivlev/walkgif/internal/effects"
	"github.com/ivlev/walkgif/internal/motion"
	"github.com/ivlev/walkgif/internal/preview"
	"github.com/ivlev/walkgif/internal/scene"
	"github.com/ivlev/walkgif/internal/source"
	"github.com/ivlev/walkgif/internal/system"
	"github.com/ivlev/walkgif/internal/video"
)

// Project renders one scene file into its outputs.
type Project struct {
	Config  *config.Config
	Cache   *source.Cache
	Encoder video.VideoEncoder
	// MP4 is used only when mp4 output is requested.
	MP4 video.VideoEncoder
	// Preview opens the still viewer; replaced in tests.
	Preview func(title string, stills ...preview.Still) error
}

func NewProject(cfg *config.Config, cache *source.Cache) *Project {
	return &Project{
		Config:  cfg,
		Cache:   cache,
		Encoder: &video.GIFEncoder{},
		MP4: &video.FFmpegEncoder{
			Codec:   cfg.VideoEncoder,
			Quality: video.DefaultQuality(cfg.VideoEncoder),
		},
		Preview: preview.Show,
	}
}

// Result lists the files a run produced.
type Result struct {
	GIF   string
	First string
	Last  string
	MP4   string
}

func (p *Project) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	cfg := p.Config

	fmt.Println("--- [PROJECT: WALKGIF] ---")
	fmt.Printf("[*] Сцена: %s | Кадров: %d | Актёров: %d\n", cfg.Scene.File, cfg.Scene.Length, len(cfg.Actors))
	fmt.Println("-----------------------------")

	loadStart := time.Now()
	actors, err := p.buildActors(ctx)
	if err != nil {
		return nil, err
	}

	sc, err := p.buildScene()
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(loadStart)

	stampers := make([]scene.Stamper, len(actors))
	for i, a := range actors {
		stampers[i] = a
	}

	renderStart := time.Now()
	frames, err := sc.MakeFrames(ctx, stampers, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("рендеринг кадров: %w", err)
	}
	renderTime := time.Since(renderStart)
	fmt.Printf("[>] Готово кадров: %d\n", len(frames.Sequence))

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = "outputs"
	}
	res := &Result{
		GIF:   filepath.Join(outDir, sc.Output+".gif"),
		First: filepath.Join(outDir, sc.Output+"_first.png"),
		Last:  filepath.Join(outDir, sc.Output+"_last.png"),
	}

	first, last, err := p.stills(frames)
	if err != nil {
		return nil, err
	}
	if err := video.WritePNG(first, res.First); err != nil {
		return nil, fmt.Errorf("запись %s: %w", res.First, err)
	}
	if err := video.WritePNG(last, res.Last); err != nil {
		return nil, fmt.Errorf("запись %s: %w", res.Last, err)
	}

	encodeStart := time.Now()
	if err := p.Encoder.EncodeAnimation(ctx, frames.Sequence, res.GIF, video.FrameDelay); err != nil {
		return nil, fmt.Errorf("кодирование gif: %w", err)
	}

	if cfg.MP4 || cfg.Scene.MP4 {
		res.MP4 = filepath.Join(outDir, sc.Output+".mp4")
		fmt.Printf("[*] Кодирование mp4 (%s)...\n", cfg.VideoEncoder)
		if err := p.MP4.EncodeAnimation(ctx, frames.Sequence, res.MP4, video.FrameDelay); err != nil {
			return nil, fmt.Errorf("кодирование mp4: %w", err)
		}
	}
	encodeTime := time.Since(encodeStart)

	if cfg.ShowStats {
		p.report(len(frames.Sequence), time.Since(startTime), loadTime, renderTime, encodeTime)
	}

	if (cfg.Preview || cfg.Scene.Preview) && p.Preview != nil {
		err := p.Preview(sc.Output,
			preview.Still{Label: "first", Image: first},
			preview.Still{Label: "last", Image: last},
		)
		if err != nil {
			fmt.Printf("[!] Предпросмотр недоступен: %v\n", err)
		}
	}

	return res, nil
}

// buildActors resolves every actor's document concurrently; the cache makes
// actors sharing a file parse it once.
func (p *Project) buildActors(ctx context.Context) ([]*actor.Actor, error) {
	actors := make([]*actor.Actor, len(p.Config.Actors))

	g, _ := errgroup.WithContext(ctx)
	for i, ac := range p.Config.Actors {
		i, ac := i, ac
		g.Go(func() error {
			doc, err := p.Cache.Get(p.resolve(ac.File))
			if err != nil {
				return fmt.Errorf("актёр %s: %w", ac.Name, err)
			}
			layers, err := doc.ActorLayers()
			if err != nil {
				return fmt.Errorf("актёр %s: %w", ac.Name, err)
			}
			masker, err := analyzer.NewMasker(ac.AutoMask)
			if err != nil {
				return fmt.Errorf("актёр %s: %w", ac.Name, err)
			}

			n := len(layers.Frames)
			params := motion.Params{
				XBase:    ac.XOff,
				YBase:    ac.YOff,
				XOffsets: offsetsOrZeros(ac.FrameXOffsets, n),
				YOffsets: offsetsOrZeros(ac.FrameYOffsets, n),
				XSpeed:   ac.XSpeed,
				YSpeed:   ac.YSpeed,
				Phase:    ac.Phase,
				Trail:    ac.Trail,
				Decay:    motion.Decay,
			}

			a, err := actor.New(ac.Name, layers, params, ac.Crop, masker)
			if err != nil {
				return err
			}
			actors[i] = a
			fmt.Printf("[*] Актёр %s: %d поз, след %d\n", ac.Name, n, ac.Trail)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return actors, nil
}

func (p *Project) buildScene() (*scene.Scene, error) {
	s := p.Config.Scene
	doc, err := p.Cache.Get(p.resolve(s.File))
	if err != nil {
		return nil, fmt.Errorf("сцена: %w", err)
	}
	layers, err := doc.SceneLayers()
	if err != nil {
		return nil, fmt.Errorf("сцена: %w", err)
	}
	return scene.New(layers, scene.Options{
		Length:      s.Length,
		Split:       s.Split,
		First:       s.First,
		Crop:        s.Crop,
		ResizeWidth: s.ResizeWidth,
		Output:      s.Output,
	})
}

// stills copies the two captured frames and applies still-only effects.
func (p *Project) stills(frames *scene.Frames) (*image.RGBA, *image.RGBA, error) {
	first := canvas.Clone(frames.First)
	last := canvas.Clone(frames.Last)

	var chain effects.Chain
	if qr := p.Config.Scene.QR; qr != nil {
		chain = append(chain, effects.NewQRStamp(qr.Text, qr.Size, image.Pt(qr.X, qr.Y)))
	}
	for _, img := range []*image.RGBA{first, last} {
		if err := chain.Apply(img); err != nil {
			return nil, nil, fmt.Errorf("эффекты кадра: %w", err)
		}
	}
	return first, last, nil
}

// resolve looks a document up relative to the working directory first, then
// relative to the scene file.
func (p *Project) resolve(file string) string {
	if filepath.IsAbs(file) || p.Config.ConfigPath == "" {
		return file
	}
	if _, err := os.Stat(file); err == nil {
		return file
	}
	alt := filepath.Join(filepath.Dir(p.Config.ConfigPath), file)
	if _, err := os.Stat(alt); err == nil {
		return alt
	}
	return file
}

func offsetsOrZeros(offsets []int, n int) []int {
	if offsets == nil {
		return make([]int, n)
	}
	return offsets
}

func (p *Project) report(frameCount int, totalTime, loadTime, renderTime, encodeTime time.Duration) {
	fps := float64(frameCount) / totalTime.Seconds()

	memLine := "n/a"
	if mu, err := system.ReadMemoryUsage(); err == nil {
		memLine = mu.String()
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Loading: %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Memory: %s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), loadTime.Seconds(), renderTime.Seconds(), encodeTime.Seconds(), fps, memLine,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Config: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f | %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.ConfigPath),
		frameCount,
		totalTime.Seconds(),
		renderTime.Seconds(),
		encodeTime.Seconds(),
		fps,
		memLine,
	)

	if err := appendBenchmark("benchmark.log", logEntry); err != nil {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}

func appendBenchmark(path, entry string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteManifest saves the manifest of the document at docPath next to it so
// it can be edited by hand. It returns the manifest path.
func WriteManifest(docPath string) (string, error) {
	doc, err := source.Open(docPath)
	if err != nil {
		return "", err
	}
	path := source.ManifestPath(docPath)
	if err := source.WriteManifest(doc.Manifest, path); err != nil {
		return "", err
	}
	return path, nil
}
