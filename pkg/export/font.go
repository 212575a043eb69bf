package export

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var defaultFont = sync.OnceValue(func() *truetype.Font {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("export: parsing built-in font: %v", err))
	}
	return f
})

// DefaultFont returns the built-in Go Regular font.
func DefaultFont() *truetype.Font {
	return defaultFont()
}

// LoadFont reads a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

// SystemFont returns the first usable sans-serif font installed on the
// system, or the built-in font.
func SystemFont() *truetype.Font {
	for _, path := range systemFontPaths() {
		if f, err := LoadFont(path); err == nil {
			return f
		}
	}
	return DefaultFont()
}

// systemFontPaths lists common font locations. Collections (.ttc) are not
// supported by the parser and are left out.
func systemFontPaths() []string {
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = "C:\\Windows"
		}
		return []string{
			filepath.Join(windir, "Fonts", "arial.ttf"),
			filepath.Join(windir, "Fonts", "segoeui.ttf"),
			filepath.Join(windir, "Fonts", "simhei.ttf"), // 中文黑体
		}
	case "darwin":
		return []string{
			"/Library/Fonts/Arial.ttf",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
			"/Library/Fonts/Arial Unicode.ttf",
		}
	default:
		return []string{
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
			"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf", // 中文
		}
	}
}
