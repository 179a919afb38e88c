// Standalone server for previewing a style with sample entries.
// Run with: go run ./cmd/style-preview [style]
// Installed styles (thqm styles install) are picked up from the data directory,
// so edits show after a restart.
package main

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"os/signal"
	"syscall"

	"github.com/thqm-go/thqm/internal/config"
	"github.com/thqm-go/thqm/internal/netutil"
	"github.com/thqm-go/thqm/internal/server"
	"github.com/thqm-go/thqm/internal/style"
)

const previewAddr = "127.0.0.1:8375"

var previewEntries = []string{"firefox", "terminal", "suspend now", "lock", "a rather long entry to check wrapping"}

func main() {
	name := config.DefaultStyle
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	dataDir, err := config.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to find data dir: %v\n", err)
		os.Exit(1)
	}

	s, err := style.Load(name, dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load style: %v\n", err)
		os.Exit(1)
	}

	url := "http://" + previewAddr
	svg, err := netutil.RenderQRSVG(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render qrcode: %v\n", err)
		os.Exit(1)
	}

	page, err := s.Render(style.PageData{
		Title:     "thqm preview: " + s.Name,
		Entries:   previewEntries,
		QRCodeSVG: template.HTML(svg),
		URL:       url,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render page: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(&server.Config{
		Addr:         previewAddr,
		Page:         page,
		Assets:       s.Assets(),
		HiddenAssets: []string{style.TemplateName},
		Output:       os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Previewing %s (%s) on %s\n", s.Name, s.Source, url)
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
