package main

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Carmen-Shannon/oxy-core/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
)

//go:embed shaders
var shaderFiles embed.FS

const (
	shaderDir  = "shaders"
	includeDir = "include"
	shaderExt  = ".wgsl"
)

// loadShaders registers the pass uniform layouts and every include under shaders/include, then
// preloads each top-level shader keyed by its file name without the extension.
func loadShaders(lib *shader.Library, files fs.FS) error {
	pp := lib.PreProcessor()
	pass.RegisterIncludes(pp)

	includes, err := fs.Glob(files, path.Join(shaderDir, includeDir, "*"+shaderExt))
	if err != nil {
		return err
	}
	for _, name := range includes {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read include %s: %w", name, err)
		}
		pp.Register(shaderKey(name), string(data))
	}

	names, err := fs.Glob(files, path.Join(shaderDir, "*"+shaderExt))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no shaders in %s", shaderDir)
	}
	sources := make([]shader.Source, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read shader %s: %w", name, err)
		}
		sources = append(sources, shader.Source{Key: shaderKey(name), Code: string(data)})
	}
	return lib.Preload(sources)
}

func shaderKey(name string) string {
	return strings.TrimSuffix(path.Base(name), shaderExt)
}
