package config

import "github.com/spf13/viper"

// Logger logger config struct
type Logger struct {
	// Level is a logrus level name.
	Level string
	// Format is text or json.
	Format string
	// Output is stderr, stdout, or file.
	Output     string
	OutputFile string
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:      v.GetString("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}
