package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
}

type SmtpConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig  `yaml:"system" json:"system"`
	Web      WebConfig  `yaml:"web" json:"web"`
	Database DBConfig   `yaml:"database" json:"database"`
	Smtp     SmtpConfig `yaml:"smtp" json:"smtp"`
	Logger   LogConfig  `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "toughrent",
		Location: "Europe/Warsaw",
		Workdir:  "/var/toughrent",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1820,
		Secret: "9b6de5cc-rent-1820-8a8d-5c7deb08a7c2",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "toughrent",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Smtp: SmtpConfig{
		Enabled: false,
		Host:    "localhost",
		Port:    25,
		From:    "wypozyczalnia@localhost",
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/toughrent/toughrent.log",
	},
}

// LoadConfig reads the yaml config file, falling back to defaults when the
// file is missing. Secrets may be overridden through the environment.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			loaded := new(AppConfig)
			if err := yaml.Unmarshal(data, loaded); err == nil {
				cfg = loaded
			}
		}
	}
	setEnvValue("TOUGHRENT_WEB_SECRET", &cfg.Web.Secret)
	setEnvValue("TOUGHRENT_DB_HOST", &cfg.Database.Host)
	setEnvValue("TOUGHRENT_DB_NAME", &cfg.Database.Name)
	setEnvValue("TOUGHRENT_DB_USER", &cfg.Database.User)
	setEnvValue("TOUGHRENT_DB_PWD", &cfg.Database.Passwd)
	setEnvValue("TOUGHRENT_SMTP_HOST", &cfg.Smtp.Host)
	setEnvValue("TOUGHRENT_SMTP_USER", &cfg.Smtp.Username)
	setEnvValue("TOUGHRENT_SMTP_PWD", &cfg.Smtp.Password)
	return cfg
}

func setEnvValue(name string, val *string) {
	if v := os.Getenv(name); v != "" {
		*val = v
	}
}
