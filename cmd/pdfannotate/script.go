package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/novvoo/go-pdfannotate/pkg/annotation"
	"github.com/novvoo/go-pdfannotate/pkg/editor"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
	"github.com/novvoo/go-pdfannotate/pkg/pages"
)

// Script 是一组按顺序执行的编辑步骤。
// 坐标均为 PDF 点 (未旋转页面, 左下角为原点)，页码从 1 开始。
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Box 描述一个注释的位置和外观
type Box struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Rotation float64 `yaml:"rotation"`
	Color    string  `yaml:"color"`
	Text     string  `yaml:"text"`
	Size     float64 `yaml:"size"`
	Path     string  `yaml:"path"` // 图片文件
}

// Drag 描述一次拖动 (移动或缩放)
type Drag struct {
	From   []float64 `yaml:"from"`
	To     []float64 `yaml:"to"`
	Handle string    `yaml:"handle"` // n, s, e, w, ne, nw, se, sw；为空时按按下位置判断
}

// PageMove 把页面从 From 移到 To
type PageMove struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// PageTurn 旋转某一页
type PageTurn struct {
	Page int `yaml:"page"`
	By   int `yaml:"by"` // 逆时针角度，90 的倍数
}

// Step 是脚本中的一步，每步只应设置一个动作
type Step struct {
	Page       int       `yaml:"page"`
	Zoom       float64   `yaml:"zoom"`
	Rotate     string    `yaml:"rotate"` // left 或 right
	Highlight  *Box      `yaml:"highlight"`
	Text       *Box      `yaml:"text"`
	Image      *Box      `yaml:"image"`
	Drag       *Drag     `yaml:"drag"`
	Select     []float64 `yaml:"select"` // 点击位置
	MovePage   *PageMove `yaml:"move-pages"`
	DeletePage int       `yaml:"delete-page"`
	RotatePage *PageTurn `yaml:"rotate-page"`
	Undo       int       `yaml:"undo"`
	Redo       int       `yaml:"redo"`
	Duplicate  bool      `yaml:"duplicate"`
	Delete     bool      `yaml:"delete"`
	Front      bool      `yaml:"front"`
	Back       bool      `yaml:"back"`
}

// LoadScript 读取 YAML 脚本
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript 解析 YAML 脚本
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("解析脚本: %w", err)
	}
	return &s, nil
}

// Runner 在编辑器上执行脚本
type Runner struct {
	Editor *editor.Editor
	Dir    string // 相对图片路径的基准目录
}

// Run 依次执行所有步骤，遇到错误即停止
func (r *Runner) Run(s *Script) error {
	for i, step := range s.Steps {
		if err := r.step(step); err != nil {
			return fmt.Errorf("第 %d 步: %w", i+1, err)
		}
	}
	// 未提交的文本编辑在结束时提交
	return r.Editor.CommitText()
}

func (r *Runner) step(s Step) error {
	e := r.Editor
	switch {
	case s.Page > 0:
		return e.SetPage(s.Page - 1)
	case s.Zoom != 0:
		e.SetZoom(s.Zoom)
		return nil
	case s.Rotate == "left":
		return e.RotateLeft()
	case s.Rotate == "right":
		return e.RotateRight()
	case s.Rotate != "":
		return fmt.Errorf("未知旋转方向 %q", s.Rotate)
	case s.Highlight != nil:
		return r.place(editor.ToolHighlight, s.Highlight)
	case s.Text != nil:
		return r.place(editor.ToolText, s.Text)
	case s.Image != nil:
		return r.image(s.Image)
	case s.Drag != nil:
		return r.drag(s.Drag)
	case len(s.Select) == 2:
		x, y := r.toView(s.Select[0], s.Select[1])
		id, ok := e.HitTest(x, y)
		e.PointerDown(editor.PointerEvent{X: x, Y: y, Target: id})
		e.PointerUp(editor.PointerEvent{X: x, Y: y})
		if !ok {
			return fmt.Errorf("(%g, %g) 处没有注释", s.Select[0], s.Select[1])
		}
		return nil
	case s.MovePage != nil:
		return r.editPages(func(m *pages.Manager) error {
			return m.Move(s.MovePage.From-1, s.MovePage.To-1)
		})
	case s.DeletePage > 0:
		return r.editPages(func(m *pages.Manager) error {
			return m.RemoveAt(s.DeletePage - 1)
		})
	case s.RotatePage != nil:
		return r.editPages(func(m *pages.Manager) error {
			return m.Rotate(s.RotatePage.Page-1, s.RotatePage.By)
		})
	case s.Undo > 0:
		for range s.Undo {
			if !e.Undo() {
				return errors.New("没有可撤销的操作")
			}
		}
		return nil
	case s.Redo > 0:
		for range s.Redo {
			if !e.Redo() {
				return errors.New("没有可重做的操作")
			}
		}
		return nil
	case s.Duplicate:
		return r.selected(func(id string) error {
			_, err := e.Duplicate(id)
			return err
		})
	case s.Delete:
		return e.DeleteSelected()
	case s.Front:
		return r.selected(e.BringToFront)
	case s.Back:
		return r.selected(e.SendToBack)
	}
	return errors.New("空步骤")
}

func (r *Runner) current() geometry.Page {
	p, _ := r.Editor.CurrentPage()
	return p
}

func (r *Runner) toView(x, y float64) (float64, float64) {
	return geometry.PDFToView(r.current(), r.Editor.Zoom()).Apply(x, y)
}

// place 用拖拽方式在当前页创建高亮或文本框
func (r *Runner) place(tool editor.Tool, b *Box) error {
	e := r.Editor
	if err := e.SetTool(tool); err != nil {
		return err
	}
	v := geometry.RectToView(geometry.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height}, r.current(), e.Zoom())
	e.PointerDown(editor.PointerEvent{X: v.Left, Y: v.Top})
	e.PointerMove(editor.PointerEvent{X: v.Left + v.Width, Y: v.Top + v.Height})
	e.PointerUp(editor.PointerEvent{X: v.Left + v.Width, Y: v.Top + v.Height})

	if tool == editor.ToolText {
		e.TextInput(b.Text)
		if err := e.CommitText(); err != nil {
			return err
		}
	}
	return r.style(b)
}

// image 添加图片，给出尺寸时再移动到指定位置
func (r *Runner) image(b *Box) error {
	path := b.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.Dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := r.Editor.AddImage(data); err != nil {
		return err
	}
	if b.Width > 0 && b.Height > 0 {
		rect := geometry.Rect{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
		if err := r.Editor.UpdateSelected(annotation.RectPatch(rect)); err != nil {
			return err
		}
	}
	return r.style(b)
}

// style 应用颜色、字号和旋转
func (r *Runner) style(b *Box) error {
	var (
		p       annotation.Patch
		changed bool
	)
	if b.Color != "" {
		c, err := annotation.ParseColor(b.Color)
		if err != nil {
			return err
		}
		p.Color, changed = &c, true
	}
	if b.Size > 0 {
		p.FontSize, changed = &b.Size, true
	}
	if b.Rotation != 0 {
		p.Rotation, changed = &b.Rotation, true
	}
	if !changed {
		return nil
	}
	return r.Editor.UpdateSelected(p)
}

func (r *Runner) drag(d *Drag) error {
	e := r.Editor
	if len(d.From) != 2 || len(d.To) != 2 {
		return errors.New("拖动需要 from 和 to 两个坐标")
	}
	x0, y0 := r.toView(d.From[0], d.From[1])
	x1, y1 := r.toView(d.To[0], d.To[1])
	id, ok := e.HitTest(x0, y0)
	if !ok {
		return fmt.Errorf("(%g, %g) 处没有注释", d.From[0], d.From[1])
	}
	e.PointerDown(editor.PointerEvent{X: x0, Y: y0, Target: id, Handle: editor.HitKind(d.Handle)})
	e.PointerMove(editor.PointerEvent{X: x1, Y: y1})
	e.PointerUp(editor.PointerEvent{X: x1, Y: y1})
	return nil
}

func (r *Runner) editPages(fn func(*pages.Manager) error) error {
	m, err := r.Editor.EditPages()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		m.Cancel()
		return err
	}
	return r.Editor.ApplyPageEdit(m)
}

func (r *Runner) selected(fn func(id string) error) error {
	id, ok := r.Editor.Selected()
	if !ok {
		return editor.ErrNoSelection
	}
	return fn(id)
}
