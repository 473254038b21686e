package httpserver

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
)

//go:embed web
var webFiles embed.FS

// webAssets is the browser client: the shell page plus its static files.
type webAssets struct {
	index  []byte
	assets http.FileSystem
}

func loadWebAssets() (*webAssets, error) {
	root, err := fs.Sub(webFiles, "web")
	if err != nil {
		return nil, err
	}
	index, err := fs.ReadFile(root, "index.html")
	if err != nil {
		return nil, fmt.Errorf("read index.html: %w", err)
	}
	return &webAssets{
		index:  index,
		assets: http.FS(root),
	}, nil
}
