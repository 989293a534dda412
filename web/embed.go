// Package web は埋め込みのフロントエンドを提供します。
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var content embed.FS

// Static は static/ 以下のファイルシステムを返します。
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Index は index.html の内容を返します。
func Index() ([]byte, error) {
	return content.ReadFile("static/index.html")
}
