package config

// Config represents the thqm config.yaml file. Every field can also be set
// with a command line flag, which takes precedence.
type Config struct {
	Port       int    `yaml:"port"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	Separator  string `yaml:"separator"`
	Title      string `yaml:"title"`
	Style      string `yaml:"style"`
	Interface  string `yaml:"interface,omitempty"`
	Oneshot    bool   `yaml:"oneshot"`
	ShowQRCode bool   `yaml:"show_qrcode"`
	ShowURL    bool   `yaml:"show_url"`
	SaveQRCode string `yaml:"save_qrcode,omitempty"`
	NoShutdown bool   `yaml:"no_shutdown"`
	NoQRCode   bool   `yaml:"no_qrcode"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file,omitempty"`
}

// Environment variables read from thqm.env and the process environment.
const (
	EnvUsername = "THQM_USERNAME"
	EnvPassword = "THQM_PASSWORD"
	EnvStyle    = "THQM_STYLE"
	EnvPort     = "THQM_PORT"
)
