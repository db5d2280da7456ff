// Package media opens article links and preview images with the desktop's
// applications.
package media

import (
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/validation"
)

type Type int

const (
	TypePage Type = iota
	TypeImage
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"webp": true, "bmp": true, "svg": true, "avif": true,
}

var imageViewers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"feh", "sxiv", "eog", "xdg-open"},
	"windows": {"start"},
}

// Launcher starts detached viewer processes for URLs.
type Launcher struct {
	browser     string
	imageViewer string
	validator   *validation.URLValidator
	start       func(name string, args ...string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	browser := cfg.Client.Browser
	if browser == "" {
		browser = getDefaultOpener()
	}

	viewer := findCommand(imageViewers[runtime.GOOS]...)
	if viewer == "" {
		viewer = browser
	}

	return &Launcher{
		browser:     browser,
		imageViewer: viewer,
		validator:   validation.NewArticleURLValidator(),
		start:       startDetached,
	}
}

// DetectType classifies a URL by its path extension, ignoring query and
// fragment.
func DetectType(raw string) Type {
	u, err := url.Parse(raw)
	if err != nil {
		return TypePage
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if imageExtensions[ext] {
		return TypeImage
	}
	return TypePage
}

// Open validates raw and hands it to the browser, or to the image viewer
// for image links.
func (l *Launcher) Open(raw string) error {
	target, err := l.validator.ValidateAndNormalize(raw)
	if err != nil {
		return fmt.Errorf("refusing to open link: %w", err)
	}

	name := l.browser
	if DetectType(target) == TypeImage {
		name = l.imageViewer
	}
	if name == "" {
		return fmt.Errorf("no application found to open URL")
	}
	return l.start(name, target)
}

func startDetached(name string, args ...string) error {
	var cmd *exec.Cmd
	if name == "start" && runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", append([]string{"/c", "start", ""}, args...)...)
	} else {
		cmd = exec.Command(name, args...)
	}

	// Start GUI applications detached
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

func findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := exec.LookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
