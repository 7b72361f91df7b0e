package annotation

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/abiosoft/mold"
)

// TemplateManager renders the pages under templates/pages inside the layout
// at templates/layouts/base_layout.html
type TemplateManager struct {
	engine mold.Engine
}

// NewTemplateManagerWithFuncMap parses every template of fsys with funcMap available
func NewTemplateManagerWithFuncMap(fsys fs.FS, funcMap template.FuncMap) (*TemplateManager, error) {
	engine, err := mold.New(fsys,
		mold.WithRoot("templates"),
		mold.WithLayout("layouts/base_layout.html"),
		mold.WithFuncMap(funcMap),
	)
	if err != nil {
		return nil, fmt.Errorf("while loading templates: %w", err)
	}
	return &TemplateManager{engine: engine}, nil
}

// Render renders a page, wrapped by the layout
func (tm *TemplateManager) Render(w io.Writer, pageName string, data any) error {
	return tm.engine.Render(w, "pages/"+pageName, data)
}
