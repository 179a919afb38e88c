package cli

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thqm-go/thqm/internal/auth"
	"github.com/thqm-go/thqm/internal/config"
	"github.com/thqm-go/thqm/internal/logging"
	"github.com/thqm-go/thqm/internal/netutil"
	"github.com/thqm-go/thqm/internal/server"
	"github.com/thqm-go/thqm/internal/style"
)

// listenHost is the address the server binds to.
const listenHost = "0.0.0.0"

var (
	servePort       int
	serveUsername   string
	servePassword   string
	serveSeparator  string
	serveTitle      string
	serveStyle      string
	serveInterface  string
	serveOneshot    bool
	serveShowQRCode bool
	serveShowURL    bool
	serveSaveQRCode string
	serveNoShutdown bool
	serveNoQRCode   bool
	serveLogLevel   string
	serveLogFile    string
)

func init() {
	registerServeFlags(rootCmd.Flags())
}

// registerServeFlags binds the serve flags to flags, resetting them to
// their defaults.
func registerServeFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&servePort, "port", "p", config.DefaultPort, "port to serve on")
	flags.StringVarP(&serveUsername, "username", "u", "", "basic auth username (requires --password)")
	flags.StringVarP(&servePassword, "password", "P", "", "basic auth password; prompted for when only --username is set")
	flags.StringVarP(&serveSeparator, "separator", "s", config.DefaultSeparator, "entry separator in the input")
	flags.StringVarP(&serveTitle, "title", "t", config.DefaultTitle, "page title")
	flags.StringVarP(&serveStyle, "style", "S", config.DefaultStyle, "page style (see 'thqm styles list')")
	flags.StringVar(&serveInterface, "interface", "", "network interface whose address is advertised")
	flags.BoolVarP(&serveOneshot, "oneshot", "o", false, "exit after the first selection")
	flags.BoolVarP(&serveShowQRCode, "show-qrcode", "q", false, "print the QR code to the terminal")
	flags.BoolVarP(&serveShowURL, "show-url", "l", false, "print the page URL to the terminal")
	flags.StringVar(&serveSaveQRCode, "save-qrcode", "", "save the QR code as a PNG to this path")
	flags.BoolVar(&serveNoShutdown, "no-shutdown", false, "disable the shutdown command")
	flags.BoolVar(&serveNoQRCode, "no-qrcode", false, "hide the QR code on the page")
	flags.StringVar(&serveLogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&serveLogFile, "log-file", "", "also write logs to this file, rotated")
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("port", func() { cfg.Port = servePort })
	set("username", func() { cfg.Username = serveUsername })
	set("password", func() { cfg.Password = servePassword })
	set("separator", func() { cfg.Separator = unescapeSeparator(serveSeparator) })
	set("title", func() { cfg.Title = serveTitle })
	set("style", func() { cfg.Style = serveStyle })
	set("interface", func() { cfg.Interface = serveInterface })
	set("oneshot", func() { cfg.Oneshot = serveOneshot })
	set("show-qrcode", func() { cfg.ShowQRCode = serveShowQRCode })
	set("show-url", func() { cfg.ShowURL = serveShowURL })
	set("save-qrcode", func() { cfg.SaveQRCode = serveSaveQRCode })
	set("no-shutdown", func() { cfg.NoShutdown = serveNoShutdown })
	set("no-qrcode", func() { cfg.NoQRCode = serveNoQRCode })
	set("log-level", func() { cfg.LogLevel = serveLogLevel })
	set("log-file", func() { cfg.LogFile = serveLogFile })

	return config.ValidateConfig(cfg)
}

// unescapeSeparator turns escape sequences typed on the command line, such
// as `\n` or `\t`, into the characters they stand for.
func unescapeSeparator(sep string) string {
	if !strings.Contains(sep, `\`) {
		return sep
	}
	unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(sep, `"`, `\"`) + `"`)
	if err != nil {
		return sep
	}
	return unquoted
}

// loadSettings merges config.yaml, thqm.env and the environment, then flags.
func loadSettings(configDir string, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	env, err := config.LoadEnvFile(configDir)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, env); err != nil {
		return nil, err
	}

	if err := applyFlags(flags, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is everything derived from the settings before serving.
type session struct {
	Host    string
	URL     string
	FullURL string
	Style   *style.Style
	Page    []byte
}

// prepareSession resolves the address, renders the QR code and the page.
func prepareSession(cfg *config.Config, dataDir string, entries []string) (*session, error) {
	host, err := netutil.ResolveLocalAddress(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local address: %w", err)
	}

	s := &session{
		Host:    host,
		URL:     "http://" + netutil.FormatAddress(host, cfg.Port),
		FullURL: netutil.FormatFullURL(host, cfg.Port, cfg.Username, cfg.Password),
	}

	svg, err := netutil.RenderQRSVG(s.FullURL)
	if err != nil {
		return nil, fmt.Errorf("failed to render qrcode: %w", err)
	}

	s.Style, err = style.Load(cfg.Style, dataDir)
	if err != nil {
		return nil, err
	}

	s.Page, err = s.Style.Render(style.PageData{
		Title:      cfg.Title,
		Entries:    entries,
		QRCodeSVG:  template.HTML(svg),
		URL:        s.URL,
		NoShutdown: cfg.NoShutdown,
		NoQRCode:   cfg.NoQRCode,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// announce prints the URL and QR code to the terminal and saves the PNG.
func announce(cfg *config.Config, s *session, stderr io.Writer) error {
	if cfg.ShowURL {
		fmt.Fprintln(stderr, s.FullURL)
	}
	if cfg.ShowQRCode {
		qr, err := netutil.RenderQRTerminal(s.FullURL)
		if err != nil {
			return fmt.Errorf("failed to render qrcode: %w", err)
		}
		fmt.Fprint(stderr, qr)
	}
	if cfg.SaveQRCode != "" {
		if err := netutil.SaveQRPNG(s.FullURL, cfg.SaveQRCode); err != nil {
			return err
		}
		logging.Info("saved qrcode", "path", cfg.SaveQRCode)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfg, err := loadSettings(configDir, cmd.Flags())
	if err != nil {
		return err
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}

	return serve(ctx, cmd, cfg, dataDir)
}

// serve reads the entries from the command's input and serves them until
// the server is shut down or ctx is cancelled.
func serve(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dataDir string) error {
	if cfg.Username != "" && cfg.Password == "" {
		password, err := auth.PromptPassword(fmt.Sprintf("Password for %s: ", cfg.Username))
		if err != nil {
			if errors.Is(err, auth.ErrNoTerminal) {
				return errors.New("--username requires --password when no terminal is available")
			}
			return err
		}
		cfg.Password = password
	}

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read entries: %w", err)
	}
	entries := config.ParseEntries(string(input), cfg.Separator)
	logging.Debug("read entries", "count", len(entries))

	sess, err := prepareSession(cfg, dataDir, entries)
	if err != nil {
		return err
	}
	if err := announce(cfg, sess, cmd.ErrOrStderr()); err != nil {
		return err
	}

	srv, err := server.NewServer(&server.Config{
		Addr:       netutil.FormatAddress(listenHost, cfg.Port),
		Oneshot:    cfg.Oneshot,
		NoShutdown: cfg.NoShutdown,
		Credentials: auth.Credentials{
			Login:    cfg.Username,
			Password: cfg.Password,
		},
		Page:         sess.Page,
		Assets:       sess.Style.Assets(),
		HiddenAssets: []string{style.TemplateName},
		Output:       cmd.OutOrStdout(),
		Logger:       logging.With("style", sess.Style.Name),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logging.Info("serving", "url", sess.URL, "entries", len(entries))
	return srv.Run(ctx)
}
