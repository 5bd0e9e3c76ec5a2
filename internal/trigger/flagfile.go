package trigger

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/sua-org/gopro-fleet/internal/core"
)

// FlagFile fica ativa enquanto o arquivo existir.
type FlagFile struct {
	Path string
}

func NewFlagFile(path string) *FlagFile { return &FlagFile{Path: path} }

func (f *FlagFile) Name() string { return "flag:" + f.Path }

func (f *FlagFile) Triggered(context.Context) (bool, error) {
	_, err := os.Stat(f.Path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, core.NewError(core.KindTrigger, "stat "+f.Path, err)
}
