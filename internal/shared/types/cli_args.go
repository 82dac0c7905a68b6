package types

import "time"

// CLIArgs represents the command-line arguments, already merged with
// the config file and the environment.
type CLIArgs struct {
	ConfigFile      string
	APIURL          string
	Timeout         time.Duration
	LogLevel        string
	CredentialsFile string
	ReportName      string
	ReportType      []string
	Dir             string
	S3Bucket        string
	S3Prefix        string
	AWSProfile      string
	Category        string
	Limit           string
	Verify          bool
	Yes             bool
}
