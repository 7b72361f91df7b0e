package annotation

import (
	"path"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/util"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

func TestExportMask(t *testing.T) {
	fs := memfs.New()
	r := domain.NewRaster(3, 2)
	r.Buffer[1] = 7
	r.Buffer[5] = 300

	name, err := ExportMask(fs, r, "masks")
	if err != nil {
		t.Fatalf("ExportMask() error = %v", err)
	}
	data, err := util.ReadFile(fs, name)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if want := path.Join("masks", HashBytes(data)+".png"); name != want {
		t.Errorf("Got %s, want %s", name, want)
	}
	hash, err := HashFile(fs, name)
	if err != nil || hash != HashBytes(data) {
		t.Errorf("HashFile() = %s, %v, want %s", hash, err, HashBytes(data))
	}

	img, err := DecodeImage(fs, name)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("Got %v, want 3x2", b)
	}
	if r, _, _, _ := img.At(2, 1).RGBA(); r != 300 {
		t.Errorf("Got %d, want label 300", r)
	}

	entries, _ := fs.ReadDir("masks")
	if len(entries) != 1 {
		t.Errorf("Got %d files, want only the named mask", len(entries))
	}

}
