package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	APIURL          string   `json:"api_url" yaml:"api_url" toml:"api_url"`
	Timeout         string   `json:"timeout" yaml:"timeout" toml:"timeout"`
	LogLevel        string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CredentialsFile string   `json:"credentials_file" yaml:"credentials_file" toml:"credentials_file"`
	ReportName      string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType      []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir             string   `json:"dir" yaml:"dir" toml:"dir"`
	S3Bucket        string   `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Prefix        string   `json:"s3_prefix" yaml:"s3_prefix" toml:"s3_prefix"`
	AWSProfile      string   `json:"aws_profile" yaml:"aws_profile" toml:"aws_profile"`
}
