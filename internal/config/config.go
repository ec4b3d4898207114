package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ini/ini"
)

// Config representa la configuración persistente de doublon (formato ini).
// Los flags de la CLI tienen prioridad sobre lo que haya aquí.
type Config struct {
	configPath string
	ini        *ini.File
}

// ScanConfig son los valores por defecto del escaneo.
type ScanConfig struct {
	MinSize  int64    // Tamaño mínimo en bytes (0 = todos, incluidos vacíos)
	Excludes []string // Carpetas ignoradas por nombre base
}

// HashConfig controla el pool de workers de fingerprinting.
type HashConfig struct {
	Workers int // 0 = número de CPUs
}

// ActionConfig son los valores por defecto de la capa de acciones.
type ActionConfig struct {
	TrashDir string
}

var defaultExcludes = []string{".git", "node_modules", ".DS_Store", "TRASH_BIN"}

// Load carga la configuración desde configPath; si el archivo no existe lo
// crea con los valores por defecto (mismo patrón que un dotfile clásico).
func Load(configPath string) (*Config, error) {
	cfg := &Config{configPath: configPath}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		cfg.setDefaults()
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("no se pudo guardar la configuración por defecto: %w", err)
		}
	} else {
		iniFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("no se pudo cargar la configuración: %w", err)
		}
		cfg.ini = iniFile
	}

	return cfg, nil
}

// Default devuelve una configuración en memoria sin tocar disco.
func Default() *Config {
	cfg := &Config{ini: ini.Empty()}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	scan := c.ini.Section("scan")
	scan.Key("min_size").SetValue("0")
	scan.Key("excludes").SetValue(strings.Join(defaultExcludes, ","))

	hash := c.ini.Section("hash")
	hash.Key("workers").SetValue("0")

	action := c.ini.Section("action")
	action.Key("trash_dir").SetValue("TRASH_BIN")
}

// Save escribe la configuración a disco.
func (c *Config) Save() error {
	if c.configPath == "" {
		return nil
	}
	return c.ini.SaveTo(c.configPath)
}

// Scan devuelve la sección [scan] con fallback a los defaults.
func (c *Config) Scan() ScanConfig {
	section := c.ini.Section("scan")
	minSize := section.Key("min_size").MustInt64(0)

	excludes := defaultExcludes
	if raw := section.Key("excludes").String(); raw != "" {
		excludes = nil
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				excludes = append(excludes, e)
			}
		}
	}

	return ScanConfig{MinSize: minSize, Excludes: excludes}
}

// Hash devuelve la sección [hash].
func (c *Config) Hash() HashConfig {
	return HashConfig{
		Workers: c.ini.Section("hash").Key("workers").MustInt(0),
	}
}

// Action devuelve la sección [action].
func (c *Config) Action() ActionConfig {
	return ActionConfig{
		TrashDir: c.ini.Section("action").Key("trash_dir").MustString("TRASH_BIN"),
	}
}
