package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags selecting and configuring the store
func SetupStoreFlags(cmd *cobra.Command) {
	key := "medium"
	cmd.PersistentFlags().String(key, "fs", WrapString("The storage medium (memory, fs, badger, sqlite). Only fs and sqlite are shared between processes"))

	key = "path"
	cmd.PersistentFlags().String(key, "", WrapString("Directory (fs, badger) or database file (sqlite) of the medium. Defaults to rkv-data, rkv-badger or rkv.db"))

	key = "prefix"
	cmd.PersistentFlags().String(key, "cw-", WrapString("The namespace prefix of all keys"))

	key = "codec"
	cmd.PersistentFlags().String(key, "json", WrapString("The codec values are persisted with (json, gob)"))
}

// SetupOutputFlags adds the global logging and output flags
func SetupOutputFlags(cmd *cobra.Command) {
	key := "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The log level (debug, info, warn, error)"))

	key = "output"
	cmd.PersistentFlags().StringP(key, "o", "text", WrapString("The output format (text, json, yaml)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("rkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	fault.Default().SetNotifier(StderrNotifier)
}

// InitLogging installs the rKV loggers with the configured level
func InitLogging() error {
	return logging.InitLoggers(viper.GetString("log-level"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// StderrNotifier shows user notifications on stderr
var StderrNotifier = fault.NotifierFunc(func(n fault.Notification) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", strings.ToUpper(string(n.Severity)), n.Message)
})
