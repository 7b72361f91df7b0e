package annotation

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/russross/blackfriday/v2"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/renderer"
	"github.com/lewtec/rotulador-editor/internal/video"
)

var (
	//go:embed templates
	templateFS embed.FS

	templateManager *TemplateManager

	// TemplateFuncMap contains custom template functions available to every page
	TemplateFuncMap = template.FuncMap{
		"markdown": func(text string) template.HTML {
			return template.HTML(blackfriday.Run([]byte(text)))
		},
	}
)

func init() {
	var err error
	templateManager, err = NewTemplateManagerWithFuncMap(templateFS, TemplateFuncMap)
	if err != nil {
		panic(err)
	}
}

type TemplateContent struct {
	Title   string
	Content string
}

// ExecTemplate renders page with content
func ExecTemplate(w io.Writer, page string, content TemplateContent) error {
	return templateManager.Render(w, page, content)
}

func stringOr(str, or string) string {
	if str != "" {
		return str
	}
	return or
}

// ReportMarkdown summarizes the annotations of view as they are at frame
func ReportMarkdown(cfg *Config, reg *renderer.Registry, view *domain.View, frame int) string {
	var markdownBuilder strings.Builder
	fmt.Fprintf(&markdownBuilder, "# View %s\n", view.ID)
	fmt.Fprintf(&markdownBuilder, "> %s\n\n", strings.ReplaceAll(stringOr(strings.TrimSpace(cfg.Meta.Description), "(No description provided)"), "\n", "\n>"))
	fmt.Fprintf(&markdownBuilder, "- **Size**: %dx%d\n", view.Width, view.Height)
	if view.IsVideo() {
		fmt.Fprintf(&markdownBuilder, "- **Frames**: %d to %d\n", view.FirstFrameIndex, view.LastFrameIndex())
		fmt.Fprintf(&markdownBuilder, "- **Frame**: %d\n", frame)
	} else {
		fmt.Fprintf(&markdownBuilder, "- **Frames**: still image\n")
	}
	fmt.Fprintf(&markdownBuilder, "\n## Annotations\n\n")

	annotations := view.Annotations()
	if len(annotations) == 0 {
		fmt.Fprintf(&markdownBuilder, "(No annotations)\n")
	}
	for _, ann := range annotations {
		fmt.Fprintf(&markdownBuilder, "### %s (`%s`, z %d)\n", cfg.ClassName(ann.ClassID), ann.Type, ann.ZIndex)
		fmt.Fprintf(&markdownBuilder, "- **ID**: `%s`\n", ann.ID)
		fmt.Fprintf(&markdownBuilder, "- **Kind**: %s\n", ann.Kind)
		fmt.Fprintf(&markdownBuilder, "- **Box**: %s\n", describeBox(reg, ann, frame))
		if ann.Type == domain.TypeMask && view.HasRaster() {
			if label, ok := view.Raster().GetLabelIndexForAnnotationID(ann.ID); ok {
				fmt.Fprintf(&markdownBuilder, "- **Pixels**: %d (label %d)\n", view.Raster().CountPixels(label), label)
			}
		}
		if ann.Video != nil {
			fmt.Fprintf(&markdownBuilder, "- **Keyframes**: %v\n", ann.Video.KeyframeIndices())
			fmt.Fprintf(&markdownBuilder, "- **Segments**: %v\n", ann.Video.Segments)
			fmt.Fprintf(&markdownBuilder, "- **Interpolated**: %v\n", ann.Video.Interpolated)
		}
		subs := ann.SubAnnotations
		if ann.IsVideoSubAnnotations() && ann.VideoSubAnnotations != nil {
			subs = video.InferVideoSubAnnotations(ann.VideoSubAnnotations, frame)
		}
		for _, sub := range subs {
			fmt.Fprintf(&markdownBuilder, "  - %s: %s\n", sub.Type, describeData(sub.Data))
		}
		fmt.Fprintf(&markdownBuilder, "\n")
	}
	return markdownBuilder.String()
}

// RenderReport writes the report of view at frame as an HTML page
func RenderReport(w io.Writer, cfg *Config, reg *renderer.Registry, view *domain.View, frame int) error {
	err := ExecTemplate(w, "report.html", TemplateContent{
		Title:   fmt.Sprintf("View %s", view.ID),
		Content: ReportMarkdown(cfg, reg, view, frame),
	})
	if err != nil {
		return fmt.Errorf("while rendering report of view %s: %w", view.ID, err)
	}
	return nil
}

func describeBox(reg *renderer.Registry, ann *domain.Annotation, frame int) string {
	data, ok := video.DataAtFrame(reg, ann, frame)
	if !ok || data == nil {
		return "(no data on this frame)"
	}
	rd, err := reg.Lookup(data.DataType())
	if err != nil {
		return "(unknown type)"
	}
	box, ok := rd.BoundingBox(data)
	if !ok {
		return "(no geometry)"
	}
	return fmt.Sprintf("%g,%g %gx%g", box.X, box.Y, box.W, box.H)
}

func describeData(d domain.Data) string {
	switch v := d.(type) {
	case *domain.TextData:
		return v.Text
	case *domain.InstanceIDData:
		return fmt.Sprintf("#%d", v.Value)
	case nil:
		return "(empty)"
	default:
		return v.DataType()
	}
}
