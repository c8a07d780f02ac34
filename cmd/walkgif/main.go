package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/ivlev/walkgif/internal/config"
	"github.com/ivlev/walkgif/internal/engine"
	"github.com/ivlev/walkgif/internal/source"
	"github.com/ivlev/walkgif/internal/system"
)

var buildVersion = "dev"

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	workersPtr := flag.Int("workers", runtime.NumCPU(), "Потоки рендеринга кадров")
	outDirPtr := flag.String("out-dir", "outputs", "Папка для результатов")
	statsPtr := flag.Bool("stats", false, "Показать отчёт о производительности и дописать benchmark.log")
	mp4Ptr := flag.Bool("mp4", false, "Дополнительно собрать mp4 через ffmpeg")
	previewPtr := flag.Bool("preview", false, "Открыть окно предпросмотра первого и последнего кадра")
	manifestPtr := flag.String("write-manifest", "", "Записать манифест слоёв для документа (PDF или папка) и выйти")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Использование: %s [флаги] [config.yaml]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *manifestPtr != "" {
		path, err := engine.WriteManifest(*manifestPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка записи манифеста: %v", err)
		}
		fmt.Printf("[+++] Манифест сохранен: %s\n", path)
		return
	}

	configPath := flag.Arg(0)
	if configPath == "" {
		os.MkdirAll("input/scenes", 0755)
		latest, err := system.FindLatestConfig("input/scenes")
		if err != nil {
			log.Fatalf("[-] Ошибка: %v. Положите YAML сцены в input/scenes/", err)
		}
		configPath = latest
		fmt.Printf("[*] Выбран файл: %s\n", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}
	cfg.OutputDir = *outDirPtr
	cfg.Workers = *workersPtr
	cfg.ShowStats = *statsPtr
	cfg.MP4 = *mp4Ptr
	cfg.Preview = *previewPtr
	cfg.BuildVersion = buildVersion

	if cfg.MP4 || cfg.Scene.MP4 {
		encoderName, _ := system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
		cfg.VideoEncoder = encoderName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewProject(cfg, source.NewCache())
	res, err := project.Run(ctx)
	if err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", res.GIF)
}
