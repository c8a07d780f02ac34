package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Системный лимит открытых файлов увеличен до %d\n", rLimit.Cur)
	}
}

// FindLatestConfig ищет самый свежий YAML-файл сцены в указанной директории
func FindLatestConfig(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	extensions := []string{".yaml", ".yml"}
	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		isConfig := false
		for _, ext := range extensions {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				isConfig = true
				break
			}
		}
		if isConfig {
			info, err := f.Info()
			if err != nil {
				continue
			}
			if info.ModTime().After(latestTime) {
				latestTime = info.ModTime()
				latestFile = filepath.Join(dir, f.Name())
			}
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов сцены", dir)
	}

	return latestFile, nil
}

// MemoryUsage holds the figures printed in the performance report.
type MemoryUsage struct {
	ProcessRSS  uint64
	SystemUsed  uint64
	SystemTotal uint64
}

// ReadMemoryUsage samples the resident set of this process and system memory.
func ReadMemoryUsage() (MemoryUsage, error) {
	var u MemoryUsage

	vm, err := mem.VirtualMemory()
	if err != nil {
		return u, err
	}
	u.SystemUsed = vm.Used
	u.SystemTotal = vm.Total

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return u, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return u, err
	}
	u.ProcessRSS = info.RSS

	return u, nil
}

func (u MemoryUsage) String() string {
	const mb = 1 << 20
	return fmt.Sprintf("RSS %d MB | System %d/%d MB", u.ProcessRSS/mb, u.SystemUsed/mb, u.SystemTotal/mb)
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	cmd := exec.Command("ffmpeg", "-encoders")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "libx264", ""
	}

	for _, enc := range encoders {
		if strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}
