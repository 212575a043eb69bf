// pdfthumbnail - 生成 PDF 缩略图
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/novvoo/go-pdfannotate/pkg/export"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/pdf"
)

func main() {
	// 命令行参数
	firstPage := flag.Int("f", 1, "起始页码")
	lastPage := flag.Int("l", 0, "结束页码 (0 表示最后一页)")
	size := flag.Int("size", 128, "缩略图最大尺寸")
	rotate := flag.Int("rotate", 0, "额外旋转角度 (顺时针, 90 的倍数)")
	format := flag.String("format", "png", "输出格式 (png, jpeg)")
	quality := flag.Int("quality", 85, "JPEG 质量 (1-100)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: %s [选项] <PDF文件> <输出前缀>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n生成 PDF 页面缩略图\n\n")
		fmt.Fprintf(os.Stderr, "选项:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if *rotate%90 != 0 {
		fmt.Fprintf(os.Stderr, "错误: 旋转角度必须是 90 的倍数: %d\n", *rotate)
		os.Exit(1)
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	// 打开 PDF 文件
	doc, err := pdf.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: 无法打开 PDF 文件: %v\n", err)
		os.Exit(1)
	}
	defer doc.Close()

	job := thumbnails{
		doc:     doc,
		cache:   pdf.NewThumbnailCache(0),
		prefix:  flag.Arg(1),
		size:    *size,
		rotate:  *rotate,
		format:  f,
		quality: *quality,
	}
	written, err := job.run(context.Background(), *firstPage, *lastPage)
	for _, name := range written {
		fmt.Printf("已生成: %s\n", name)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

type thumbnails struct {
	doc     pdf.Source
	cache   *pdf.ThumbnailCache
	prefix  string
	size    int
	rotate  int // 顺时针
	format  export.Format
	quality int
}

// run 生成 first 到 last 页的缩略图，返回已写出的文件。
// 单页失败只打印警告。
func (t *thumbnails) run(ctx context.Context, first, last int) ([]string, error) {
	// 确定页面范围
	numPages := t.doc.NumPages()
	if last == 0 || last > numPages {
		last = numPages
	}
	first = max(first, 1)
	if first > last {
		return nil, fmt.Errorf("页码范围无效: %d-%d", first, last)
	}

	// 确保输出目录存在
	if dir := filepath.Dir(t.prefix); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	var written []string
	for pageNum := first; pageNum <= last; pageNum++ {
		name, err := t.page(ctx, pageNum)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "警告: 无法生成第 %d 页缩略图: %v\n", pageNum, err)
			continue
		}
		written = append(written, name)
	}
	return written, nil
}

func (t *thumbnails) page(ctx context.Context, pageNum int) (string, error) {
	info, err := t.doc.PageSize(pageNum)
	if err != nil {
		return "", err
	}
	// 缓存使用逆时针角度
	rotation := info.Page(pageNum-1).Rotation - t.rotate
	img, err := t.cache.Get(ctx, t.doc, pageNum, geometry.NormalizeRotation(rotation), t.size)
	if err != nil {
		return "", err
	}

	ext := "png"
	if t.format == export.JPEG {
		ext = "jpg"
	}
	name := fmt.Sprintf("%s-%d.%s", t.prefix, pageNum, ext)
	if err := t.save(name, img); err != nil {
		return "", err
	}
	return name, nil
}

func (t *thumbnails) save(name string, img image.Image) error {
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if t.format == export.JPEG {
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: t.quality})
	} else {
		err = png.Encode(out, img)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
