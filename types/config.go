package types

// AppConfig represents the application configuration loaded from config file.
type AppConfig struct {
	Port    int           `yaml:"port"`
	DataDir string        `yaml:"dataDir"`
	BlobDir string        `yaml:"blobDir"`
	BaseURL string        `yaml:"baseURL"`
	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects and configures the blob sink backend.
// Type is one of: local, cloud, ftp, s3.
type StorageConfig struct {
	Type  string          `yaml:"type" json:"type"`
	Cloud CloudSinkConfig `yaml:"cloud,omitempty" json:"cloud,omitempty"`
	FTP   FTPSinkConfig   `yaml:"ftp,omitempty" json:"ftp,omitempty"`
	S3    S3SinkConfig    `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// CloudSinkConfig configures the HTTP upload backend.
type CloudSinkConfig struct {
	URL       string `yaml:"url" json:"url"`
	AppID     string `yaml:"appId" json:"app_id"`
	SecretKey string `yaml:"secretKey" json:"secret_key"`
	Path      string `yaml:"path" json:"path"`
}

// FTPSinkConfig configures the FTP upload backend.
type FTPSinkConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Path     string `yaml:"path" json:"path"`
}

// S3SinkConfig configures the S3-compatible upload backend.
type S3SinkConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"accessKey" json:"access_key"`
	SecretKey string `yaml:"secretKey" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"useSSL" json:"use_ssl"`
}

// Config holds runtime overrides from CLI flags.
type Config struct {
	Log           string
	UseConfigPath string
	UseDataDir    string
	UseBlobDir    string
	UsePort       int
	UseBaseURL    string
}
