package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch re-reads the loaded config file on every write and hands the result to onChange.
// Reloads that fail validation go to onError and the previous config stays in effect.
// Call after Load or LoadFromFile.
func Watch(onChange func(*Config), onError func(error)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		v := viper.GetViper()
		if overlayFile != "" {
			overlay := viper.New()
			overlay.SetConfigFile(overlayFile)
			if err := overlay.ReadInConfig(); err == nil {
				_ = v.MergeConfigMap(overlay.AllSettings())
			}
		}
		cfg, err := finish(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}

// ConfigFile reports which file the loader actually read, empty if none was found.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}
