// pdfannotate - 按脚本为 PDF 添加高亮、文本和图片注释并导出
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/novvoo/go-pdfannotate/pkg/editor"
	"github.com/novvoo/go-pdfannotate/pkg/export"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

func main() {
	// 命令行参数
	scale := flag.Float64("scale", export.DefaultScale, "导出分辨率倍数")
	format := flag.String("format", "jpeg", "页面图像格式 (jpeg, png)")
	quality := flag.Float64("quality", export.DefaultQuality, "JPEG 质量 (0.1-1.0)")
	zoom := flag.Float64("zoom", editor.DefaultZoom, "执行脚本时的视图缩放")
	fontFile := flag.String("font", "", "文本注释使用的 TrueType 字体 (默认使用系统字体)")
	quiet := flag.Bool("q", false, "不输出摘要")
	verbose := flag.Bool("v", false, "输出调试日志")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项] <PDF文件> <脚本.yaml> [输出文件]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n按 YAML 脚本编辑注释并导出为新的 PDF\n\n")
		fmt.Fprintf(os.Stderr, "选项:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	pdfFile := flag.Arg(0)
	scriptFile := flag.Arg(1)
	outputFile := flag.Arg(2)
	if outputFile == "" {
		outputFile = strings.TrimSuffix(pdfFile, filepath.Ext(pdfFile)) + "-annotated.pdf"
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config{
		input:   pdfFile,
		script:  scriptFile,
		output:  outputFile,
		scale:   *scale,
		format:  *format,
		quality: *quality,
		zoom:    *zoom,
		font:    *fontFile,
		logger:  logger,
	}
	if !*quiet {
		cfg.summary = os.Stdout
		cfg.progress = term.IsTerminal(int(os.Stderr.Fd()))
	}
	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	input, script, output string

	scale   float64
	format  string
	quality float64
	zoom    float64
	font    string

	logger   *slog.Logger
	summary  io.Writer // nil 表示不输出摘要
	progress bool      // 在 stderr 上显示逐页进度
}

func run(ctx context.Context, cfg config) error {
	f, err := export.ParseFormat(cfg.format)
	if err != nil {
		return err
	}
	opts := export.Options{
		Scale:   cfg.scale,
		Format:  f,
		Quality: cfg.quality,
		Logger:  cfg.logger,
	}
	if cfg.font != "" {
		if opts.Font, err = export.LoadFont(cfg.font); err != nil {
			return fmt.Errorf("无法加载字体: %w", err)
		}
	} else {
		opts.Font = export.SystemFont()
	}
	if cfg.progress {
		opts.Logger = slog.New(progressHandler{cfg.logger.Handler(), os.Stderr})
	}
	comp, err := export.NewCompositor(opts)
	if err != nil {
		return err
	}

	script, err := LoadScript(cfg.script)
	if err != nil {
		return err
	}

	// 打开 PDF 文件
	doc, err := pdf.Open(cfg.input)
	if err != nil {
		return fmt.Errorf("无法打开 PDF 文件: %w", err)
	}
	defer doc.Close()

	ed := editor.New(editor.WithLogger(cfg.logger))
	if err := ed.Load(doc); err != nil {
		return err
	}
	ed.SetZoom(cfg.zoom)

	runner := &Runner{Editor: ed, Dir: filepath.Dir(cfg.script)}
	if err := runner.Run(script); err != nil {
		return err
	}

	out, err := os.Create(cfg.output)
	if err != nil {
		return err
	}
	report, err := comp.Export(ctx, doc, ed.Snapshot(), out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(cfg.output)
		return err
	}

	if cfg.summary != nil {
		fmt.Fprintf(cfg.summary, "已导出: %s (%d 页, %d 个注释)\n", cfg.output, report.Pages, len(ed.Annotations()))
		for _, pe := range report.Failed {
			fmt.Fprintf(cfg.summary, "  跳过第 %d 页 (原第 %d 页): %v\n", pe.Page, pe.Index+1, pe.Err)
		}
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d 页导出失败", len(report.Failed))
	}
	return nil
}

// progressHandler 在终端上显示逐页进度，其余日志交给下一个 handler
type progressHandler struct {
	next slog.Handler
	w    io.Writer
}

func (h progressHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= slog.LevelDebug
}

func (h progressHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Message == "page exported" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "page" {
				fmt.Fprintf(h.w, "\r已处理第 %v 页", a.Value)
				return false
			}
			return true
		})
	}
	if r.Message == "export finished" {
		fmt.Fprintln(h.w)
	}
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h progressHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return progressHandler{h.next.WithAttrs(attrs), h.w}
}

func (h progressHandler) WithGroup(name string) slog.Handler {
	return progressHandler{h.next.WithGroup(name), h.w}
}
