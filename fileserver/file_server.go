// Package fileserver serves static files from a public directory.
package fileserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/astaxie/beego/logs"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/logger"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/server"
)

// IndexFile is what a request for "/" is served from
const IndexFile = "index.html"

// FileServer answers GET requests with the contents of files under a
// public directory. Requests that resolve outside of it are refused.
type FileServer struct {
	// Absolute, symlink-free path of the directory all files are served from
	publicPath string
	logger     *logs.BeeLogger
}

var _ server.Handler = (*FileServer)(nil)

// New returns a FileServer rooted at publicPath. The directory must exist.
func New(publicPath string, log *logs.BeeLogger) (*FileServer, error) {
	abs, err := filepath.Abs(publicPath)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("public path %s: %v", publicPath, err))
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("public path %s: %v", publicPath, err))
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("public path %s is not a directory", publicPath))
	}

	return &FileServer{
		publicPath: root,
		logger:     logger.OrDefault(log),
	}, nil
}

// PublicPath returns the canonical directory files are served from
func (fs *FileServer) PublicPath() string {
	return fs.publicPath
}

// HandleRequest serves GET only; every other method is 404
func (fs *FileServer) HandleRequest(req *protocol.Request) *protocol.Response {
	if req.Method() != protocol.MethodGet {
		return protocol.NewResponse(protocol.StatusNotFound, nil)
	}

	path := req.Path()
	if path == "/" {
		path = IndexFile
	}

	body, ok := fs.readFile(path)
	if !ok {
		return protocol.NewResponse(protocol.StatusNotFound, nil)
	}
	return protocol.NewResponse(protocol.StatusOk, body)
}

// readFile reads a file given relative to the public directory. It returns
// false for anything missing, outside the public directory, or not text.
func (fs *FileServer) readFile(filePath string) ([]byte, bool) {
	composed := fs.publicPath + "/" + filePath

	// EvalSymlinks fails for paths that do not exist, and collapses `..`
	// so the result can be checked against the public directory.
	resolved, err := filepath.EvalSymlinks(composed)
	if err != nil {
		fs.logger.Debug("File not found: %s", filePath)
		return nil, false
	}

	if !fs.contains(resolved) {
		fs.logger.Warning("Malicious file path attempted: %s", filePath)
		return nil, false
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		fs.logger.Debug("Failed to read %s: %v", filePath, err)
		return nil, false
	}
	if !utf8.Valid(data) {
		fs.logger.Debug("Refusing to serve non-text file: %s", filePath)
		return nil, false
	}

	return data, true
}

// contains compares whole path components, so a sibling such as
// /srv/public-other is outside /srv/public
func (fs *FileServer) contains(resolved string) bool {
	if resolved == fs.publicPath {
		return true
	}
	root := fs.publicPath
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(resolved, root)
}
